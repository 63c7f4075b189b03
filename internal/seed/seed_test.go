package seed

import (
	"context"
	"testing"

	"devgram/internal/models"
	"devgram/internal/repository"
	"devgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = `
users:
  - username: ada
    fullName: Ada Lovelace
    bio: first programmer
  - username: linus
    email: linus@example.com
  - username: grace
follows:
  - {follower: linus, target: ada}
  - {follower: grace, target: ada}
  - {follower: grace, target: ada}
posts:
  - author: ada
    caption: notes on the engine, thoughts @linus?
    code: "x := 1"
    language: Go
    likedBy: [linus, grace, linus]
    savedBy: [grace]
    comments:
      - {author: linus, text: "@grace have a look"}
messages:
  - {from: grace, to: ada, content: hello}
`

func TestParseFixture(t *testing.T) {
	fx, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	assert.Len(t, fx.Users, 3)
	assert.Equal(t, "Ada Lovelace", fx.Users[0].FullName)
	require.Len(t, fx.Posts, 1)
	assert.Equal(t, []string{"linus", "grace", "linus"}, fx.Posts[0].LikedBy)
	assert.Equal(t, "@grace have a look", fx.Posts[0].Comments[0].Text)
}

func TestFixtureValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing username", "users:\n  - fullName: x\n", "username is required"},
		{"duplicate user", "users:\n  - username: a1b\n  - username: a1b\n", "duplicate username"},
		{"unknown follow target", "users:\n  - username: ada\nfollows:\n  - {follower: ada, target: bob}\n", `unknown user "bob"`},
		{"unknown liker", "users:\n  - username: ada\nposts:\n  - {author: ada, caption: hi, likedBy: [zed]}\n", `unknown user "zed"`},
		{"unknown sender", "users:\n  - username: ada\nmessages:\n  - {from: eve, to: ada, content: hi}\n", `unknown user "eve"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFactoryBuild(t *testing.T) {
	fx := NewFactory(42).Build(Options{NumUsers: 12, NumPosts: 30})
	require.NoError(t, fx.Validate())
	assert.Len(t, fx.Users, 12)
	assert.Len(t, fx.Posts, 30)

	for _, u := range fx.Users {
		assert.Regexp(t, `^[A-Za-z0-9_]{3,30}$`, u.Username)
	}
	for _, f := range fx.Follows {
		assert.NotEqual(t, f.Follower, f.Target)
	}
	for _, m := range fx.Messages {
		assert.NotEqual(t, m.From, m.To)
	}

	again := NewFactory(42).Build(Options{NumUsers: 12, NumPosts: 30})
	assert.Equal(t, fx, again, "same seed, same fixture")

	assert.Empty(t, NewFactory(1).Build(Options{}).Users)
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repos := repository.NewSet(db)

	fx, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)

	sum, err := NewSeeder(repos, "").Seed(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Follows: 2, Posts: 1, Likes: 2, Comments: 1, Messages: 1}, *sum)

	ada, err := repos.Users.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, ada)
	assert.Equal(t, 2, ada.Followers)
	assert.Equal(t, "first programmer", ada.Bio)
	assert.Equal(t, "ada@devgram.test", ada.Email)

	posts, err := repos.Posts.ListByAuthor(ctx, "ada", 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 2, posts[0].Likes)
	assert.ElementsMatch(t, []string{"linus", "grace"}, posts[0].LikedBy)
	assert.Equal(t, "go", posts[0].Language)

	linusInbox, err := repos.Notifications.ListForRecipient(ctx, "linus", 0)
	require.NoError(t, err)
	require.Len(t, linusInbox, 1)
	assert.Equal(t, models.NotificationMention, linusInbox[0].Type)

	adaInbox, err := repos.Notifications.ListForRecipient(ctx, "ada", 0)
	require.NoError(t, err)
	types := map[models.NotificationType]int{}
	for _, n := range adaInbox {
		types[n.Type]++
	}
	assert.Equal(t, 2, types[models.NotificationFollow])
	assert.Equal(t, 2, types[models.NotificationLike])
	assert.Equal(t, 1, types[models.NotificationComment])
	assert.Equal(t, 1, types[models.NotificationMessage])

	_, err = NewSeeder(repos, "").Seed(ctx, fx)
	assert.Error(t, err, "usernames are already taken")
}

func TestSeeder_SeedsGeneratedFixture(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := NewFactory(7).Build(Options{NumUsers: 4, NumPosts: 6})

	sum, err := NewSeeder(repository.NewSet(db), "dedupe_mentions=on").Seed(context.Background(), fx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 6, sum.Posts)
	assert.Equal(t, len(fx.Messages), sum.Messages)
}
