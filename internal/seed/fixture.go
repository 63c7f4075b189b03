package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPassword is given to fixture users that do not set one.
const DefaultPassword = "password123"

// Fixture is a complete demo dataset. Every reference is by username; posts
// are referenced by their index in Posts.
type Fixture struct {
	Users    []UserFixture    `yaml:"users"`
	Follows  []FollowFixture  `yaml:"follows"`
	Posts    []PostFixture    `yaml:"posts"`
	Messages []MessageFixture `yaml:"messages"`
}

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"fullName"`
	Bio      string `yaml:"bio"`
}

type FollowFixture struct {
	Follower string `yaml:"follower"`
	Target   string `yaml:"target"`
}

type PostFixture struct {
	Author   string           `yaml:"author"`
	Caption  string           `yaml:"caption"`
	Content  string           `yaml:"content"`
	Code     string           `yaml:"code"`
	Language string           `yaml:"language"`
	Image    string           `yaml:"image"`
	LikedBy  []string         `yaml:"likedBy"`
	SavedBy  []string         `yaml:"savedBy"`
	Comments []CommentFixture `yaml:"comments"`
}

type CommentFixture struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

type MessageFixture struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Content string `yaml:"content"`
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks that every username a fixture references is declared in
// Users. Field-level rules are left to the services.
func (fx *Fixture) Validate() error {
	known := make(map[string]struct{}, len(fx.Users))
	for i, u := range fx.Users {
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if _, dup := known[u.Username]; dup {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		known[u.Username] = struct{}{}
	}

	check := func(where, name string) error {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%s: unknown user %q", where, name)
		}
		return nil
	}
	for i, f := range fx.Follows {
		if err := check(fmt.Sprintf("follows[%d].follower", i), f.Follower); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("follows[%d].target", i), f.Target); err != nil {
			return err
		}
	}
	for i, p := range fx.Posts {
		if err := check(fmt.Sprintf("posts[%d].author", i), p.Author); err != nil {
			return err
		}
		for _, name := range append(append([]string{}, p.LikedBy...), p.SavedBy...) {
			if err := check(fmt.Sprintf("posts[%d]", i), name); err != nil {
				return err
			}
		}
		for j, c := range p.Comments {
			if err := check(fmt.Sprintf("posts[%d].comments[%d]", i, j), c.Author); err != nil {
				return err
			}
		}
	}
	for i, m := range fx.Messages {
		if err := check(fmt.Sprintf("messages[%d].from", i), m.From); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("messages[%d].to", i), m.To); err != nil {
			return err
		}
	}
	return nil
}
