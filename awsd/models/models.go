package models

// LaunchTimeLayout is the UTC layout used for Instance.LaunchTime, matching
// the timestamp strings the EC2 query API returns.
const LaunchTimeLayout = "2006-01-02T15:04:05.000Z"

// Instance is the subset of an EC2 instance description the dashboard works
// with. Optional values the API omitted are empty strings.
type Instance struct {
	ID             string
	Region         string
	Tags           map[string]string // nil when the instance carries no tags
	RootDeviceType string
	State          string
	KeyName        string
	PrivateIP      string
	PublicIP       string
	Zone           string
	LaunchTime     string
	InstanceType   string
}
