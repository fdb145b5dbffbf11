package formtest

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fixture profile names.
const (
	ProfileSmall  = "small"
	ProfileMedium = "medium"
	ProfileLarge  = "large"
)

// ErrUnknownFixture is returned by Fixture for a profile that is not embedded.
var ErrUnknownFixture = errors.New("unknown fixture profile")

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

var (
	fixturesOnce sync.Once
	fixtures     map[string]TestFormData
	fixturesErr  error
)

func loadFixtures() {
	fixtures = make(map[string]TestFormData)
	for _, name := range []string{ProfileSmall, ProfileMedium, ProfileLarge} {
		raw, err := fixtureFS.ReadFile("fixtures/" + name + ".yaml")
		if err != nil {
			fixturesErr = fmt.Errorf("read fixture %s: %w", name, err)
			return
		}
		var d TestFormData
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			fixturesErr = fmt.Errorf("decode fixture %s: %w", name, err)
			return
		}
		fixtures[name] = d
	}
}

// Fixture returns a copy of the named profile. Fixtures are decoded once per
// process; callers may mutate the returned value freely.
func Fixture(profile string) (TestFormData, error) {
	fixturesOnce.Do(loadFixtures)
	if fixturesErr != nil {
		return TestFormData{}, fixturesErr
	}
	d, ok := fixtures[profile]
	if !ok {
		return TestFormData{}, fmt.Errorf("%q: %w", profile, ErrUnknownFixture)
	}
	return d.Clone(), nil
}

// Profiles lists the embedded fixture profiles, sorted by company size.
func Profiles() []string {
	return []string{ProfileSmall, ProfileMedium, ProfileLarge}
}

// Fixtures returns a copy of every profile keyed by name.
func Fixtures() (map[string]TestFormData, error) {
	out := make(map[string]TestFormData, 3)
	for _, p := range Profiles() {
		d, err := Fixture(p)
		if err != nil {
			return nil, err
		}
		out[p] = d
	}
	return out, nil
}

// SmallCompany returns the small profile and panics if fixtures are broken.
func SmallCompany() TestFormData { return mustFixture(ProfileSmall) }

// MediumCompany returns the medium profile and panics if fixtures are broken.
func MediumCompany() TestFormData { return mustFixture(ProfileMedium) }

// LargeCompany returns the large profile and panics if fixtures are broken.
func LargeCompany() TestFormData { return mustFixture(ProfileLarge) }

func mustFixture(p string) TestFormData {
	d, err := Fixture(p)
	if err != nil {
		panic(err)
	}
	return d
}

// Clone returns a deep copy.
func (d TestFormData) Clone() TestFormData {
	c := d
	c.OwnershipInfo.Owners = append([]Owner(nil), d.OwnershipInfo.Owners...)
	c.FinancesInfo.Debts = append([]Debt(nil), d.FinancesInfo.Debts...)
	c.Documents.Files = append([]Document(nil), d.Documents.Files...)
	return c
}

// MarshalFixturesYAML renders fixtures as a multi-document YAML stream,
// smallest profile first.
func MarshalFixturesYAML(set map[string]TestFormData) ([]byte, error) {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return profileRank(names[i]) < profileRank(names[j]) })

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, n := range names {
		if err := enc.Encode(set[n]); err != nil {
			return nil, fmt.Errorf("encode fixture %s: %w", n, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func profileRank(p string) int {
	for i, name := range Profiles() {
		if name == p {
			return i
		}
	}
	return len(Profiles())
}
