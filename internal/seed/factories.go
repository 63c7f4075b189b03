package seed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// Options size a generated dataset.
type Options struct {
	NumUsers int
	NumPosts int
	// Seed makes generation reproducible. Zero picks a random seed.
	Seed int64
}

// snippets pairs a language with a code sample so similar-post lookups have
// something to group on.
var snippets = []struct {
	language string
	code     string
}{
	{"go", "func main() {\n\tfmt.Println(\"hello, gophers\")\n}"},
	{"go", "ctx, cancel := context.WithTimeout(ctx, time.Second)\ndefer cancel()"},
	{"python", "def fib(n):\n    return n if n < 2 else fib(n - 1) + fib(n - 2)"},
	{"python", "with open(path) as f:\n    data = json.load(f)"},
	{"javascript", "const sleep = (ms) => new Promise((r) => setTimeout(r, ms));"},
	{"typescript", "type Result<T> = { ok: true; value: T } | { ok: false; error: string };"},
	{"rust", "fn main() {\n    println!(\"{}\", (1..=10).sum::<u32>());\n}"},
	{"sql", "SELECT username, COUNT(*) FROM posts GROUP BY username ORDER BY 2 DESC;"},
}

var nonUsernameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Factory generates demo fixtures with gofakeit.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a Factory. The same non-zero seed always yields the same
// fixture.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Build generates a fixture with opts.NumUsers users and opts.NumPosts posts,
// plus follows, likes, comments with mentions and direct messages between
// them.
func (f *Factory) Build(opts Options) *Fixture {
	fx := &Fixture{}
	if opts.NumUsers <= 0 {
		return fx
	}

	seen := make(map[string]struct{}, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		name := f.username(i, seen)
		fx.Users = append(fx.Users, UserFixture{
			Username: name,
			Email:    strings.ToLower(name) + "@devgram.test",
			Password: DefaultPassword,
			FullName: f.faker.Name(),
			Bio:      f.faker.HackerPhrase(),
		})
	}
	names := make([]string, len(fx.Users))
	for i, u := range fx.Users {
		names[i] = u.Username
	}

	// Each user follows a handful of others.
	for i, follower := range names {
		for _, j := range f.pick(len(names), f.faker.Number(0, 4)) {
			if j == i {
				continue
			}
			fx.Follows = append(fx.Follows, FollowFixture{Follower: follower, Target: names[j]})
		}
	}

	for i := 0; i < opts.NumPosts; i++ {
		fx.Posts = append(fx.Posts, f.post(names))
	}

	for i := 0; i < opts.NumUsers; i++ {
		from := names[f.faker.Number(0, len(names)-1)]
		to := names[f.faker.Number(0, len(names)-1)]
		if from == to {
			continue
		}
		fx.Messages = append(fx.Messages, MessageFixture{From: from, To: to, Content: f.faker.Sentence(8)})
	}
	return fx
}

func (f *Factory) post(names []string) PostFixture {
	author := names[f.faker.Number(0, len(names)-1)]
	p := PostFixture{
		Author:  author,
		Caption: f.faker.Sentence(6),
	}

	switch f.faker.Number(0, 3) {
	case 0:
		p.Content = f.faker.Paragraph(1, 3, 8, "\n")
	case 1:
		p.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	default:
		s := snippets[f.faker.Number(0, len(snippets)-1)]
		p.Code = s.code
		p.Language = s.language
	}

	if len(names) > 1 && f.faker.Number(0, 2) == 0 {
		p.Caption += " cc @" + names[f.faker.Number(0, len(names)-1)]
	}

	for _, j := range f.pick(len(names), f.faker.Number(0, len(names))) {
		p.LikedBy = append(p.LikedBy, names[j])
	}
	for k := f.faker.Number(0, 3); k > 0; k-- {
		text := f.faker.Sentence(5)
		if f.faker.Number(0, 3) == 0 {
			text = "@" + author + " " + text
		}
		p.Comments = append(p.Comments, CommentFixture{
			Author: names[f.faker.Number(0, len(names)-1)],
			Text:   text,
		})
	}
	return p
}

// username derives a valid, unique username from a gofakeit handle.
func (f *Factory) username(i int, seen map[string]struct{}) string {
	name := nonUsernameChars.ReplaceAllString(f.faker.Username(), "")
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = fmt.Sprintf("dev_%s", name)
	}
	if _, dup := seen[strings.ToLower(name)]; dup {
		name = fmt.Sprintf("%s_%d", name, i)
	}
	seen[strings.ToLower(name)] = struct{}{}
	return name
}

// pick returns up to k distinct indexes in [0, n).
func (f *Factory) pick(n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := f.faker.Number(i, n-1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
