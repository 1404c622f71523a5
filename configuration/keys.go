package configuration

import (
	"strings"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"awsview/errors"
)

const (
	accessKeyName = "key"
	secretKeyName = "secret"
)

// Credential is one named access key / secret key pair from the keys file.
type Credential struct {
	Name      string
	AccessKey string
	SecretKey string
}

// KeyStore is a parsed keys file. Each section names one credential set:
//
//	[production]
//	key = AKIA...
//	secret = ...
//
// Values in the DEFAULT section apply to every section that lacks them.
type KeyStore struct {
	path  string
	file  *ini.File
	names []string
}

// LoadKeyStore reads and parses the keys file at path.
func LoadKeyStore(path string) (*KeyStore, error) {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "LoadKeyStore"),
	)

	// Option names are case-insensitive, section names are not.
	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return nil, errors.New(errors.ErrConfigKeysFile, "unable to read keys file",
			map[string]interface{}{
				"keys_file": path,
			}, err)
	}

	var names []string
	for _, name := range file.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}

	logger.Debug("Keys file loaded",
		zap.String("operation", "keys_load"),
		zap.String("keys_file", path),
		zap.Int("sections", len(names)),
	)

	return &KeyStore{path: path, file: file, names: names}, nil
}

// Sections returns the credential section names in file order.
func (k *KeyStore) Sections() []string {
	out := make([]string, len(k.names))
	copy(out, k.names)
	return out
}

// Has reports whether a section with the given name exists.
func (k *KeyStore) Has(name string) bool {
	for _, n := range k.names {
		if n == name {
			return true
		}
	}
	return false
}

// Credential returns the complete key pair stored under name. A section that
// is missing either value yields an error and no credential.
func (k *KeyStore) Credential(name string) (Credential, error) {
	if !k.Has(name) {
		return Credential{}, errors.New(errors.ErrConfigMissingSection, "unknown key section",
			map[string]interface{}{
				"keys_file": k.path,
				"section":   name,
			}, nil)
	}

	section := k.file.Section(name)
	accessKey := k.value(section, accessKeyName)
	secretKey := k.value(section, secretKeyName)

	var missing []string
	if accessKey == "" {
		missing = append(missing, accessKeyName)
	}
	if secretKey == "" {
		missing = append(missing, secretKeyName)
	}
	if len(missing) > 0 {
		return Credential{}, errors.New(errors.ErrConfigMissingKey, "key section is incomplete",
			map[string]interface{}{
				"keys_file": k.path,
				"section":   name,
				"missing":   strings.Join(missing, ","),
			}, nil)
	}

	return Credential{Name: name, AccessKey: accessKey, SecretKey: secretKey}, nil
}

// LoadSections resolves every section into a credential.
func (k *KeyStore) LoadSections() (map[string]Credential, error) {
	out := make(map[string]Credential, len(k.names))
	for _, name := range k.names {
		cred, err := k.Credential(name)
		if err != nil {
			return nil, err
		}
		out[name] = cred
	}
	return out, nil
}

// value looks name up in the section's own keys, then in DEFAULT. A dotted
// section such as [prod.eu] never reads keys from [prod].
func (k *KeyStore) value(section *ini.Section, name string) string {
	if v, ok := section.KeysHash()[name]; ok {
		return strings.TrimSpace(v)
	}
	if v, ok := k.file.Section(ini.DefaultSection).KeysHash()[name]; ok {
		return strings.TrimSpace(v)
	}
	return ""
}
