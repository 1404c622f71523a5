// Package classifier groups instances by their env tag for display.
package classifier

import (
	"slices"
	"sort"
	"strings"

	"awsview/awsd/models"
)

const (
	// Unknown names the group for instances without an env tag, and the role
	// of instances without a role tag.
	Unknown = "unknown"

	EnvTag  = "env"
	RoleTag = "role"
)

// Summary is the flattened, presentation-ready view of one instance.
type Summary struct {
	ID         string
	Role       string
	Type       string
	State      string
	KeyPair    string
	PrivateIP  string
	PublicIP   string
	Zone       string
	LaunchTime string
	Size       string
}

// Groups maps an environment name to its instances, sorted by role.
type Groups map[string][]Summary

// Tag returns tags[key], or fallback when the key is absent. A present key
// with an empty value returns "".
func Tag(tags map[string]string, key, fallback string) string {
	if value, ok := tags[key]; ok {
		return value
	}
	return fallback
}

// Classify partitions instances into environment groups. Every env tag value
// seen gets a group, the Unknown group always exists, and each group is
// ordered by role with ties kept in input order.
func Classify(instances []models.Instance) Groups {
	groups := Groups{Unknown: {}}
	for _, instance := range instances {
		if env, ok := instance.Tags[EnvTag]; ok {
			if _, seen := groups[env]; !seen {
				groups[env] = []Summary{}
			}
		}
	}

	for _, instance := range instances {
		env := Tag(instance.Tags, EnvTag, Unknown)
		groups[env] = append(groups[env], Summarize(instance))
	}

	for env := range groups {
		slices.SortStableFunc(groups[env], func(a, b Summary) int {
			return strings.Compare(a.Role, b.Role)
		})
	}
	return groups
}

// Summarize flattens one instance.
func Summarize(instance models.Instance) Summary {
	return Summary{
		ID:         instance.ID,
		Role:       Tag(instance.Tags, RoleTag, Unknown),
		Type:       instance.RootDeviceType,
		State:      instance.State,
		KeyPair:    instance.KeyName,
		PrivateIP:  instance.PrivateIP,
		PublicIP:   instance.PublicIP,
		Zone:       instance.Zone,
		LaunchTime: instance.LaunchTime,
		Size:       instance.InstanceType,
	}
}

// Order lists the group names for rendering: named environments in ascending
// order, then Unknown.
func (g Groups) Order() []string {
	names := make([]string, 0, len(g))
	for env := range g {
		if env != Unknown {
			names = append(names, env)
		}
	}
	sort.Strings(names)
	return append(names, Unknown)
}

// Count is the number of instances across all groups.
func (g Groups) Count() int {
	n := 0
	for _, summaries := range g {
		n += len(summaries)
	}
	return n
}
