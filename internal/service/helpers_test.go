package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"devgram/internal/cache"
	"devgram/internal/featureflags"
	"devgram/internal/models"
	"devgram/internal/repository"
	"devgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recordingDispatcher captures dispatched notifications.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []*models.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n *models.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type fakeTokens struct{}

func (fakeTokens) IssueToken(user *models.User) (string, error) {
	return "token-" + user.ID, nil
}

// testEnv wires every service to one in-memory SQLite database.
type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	follows       repository.FollowRepository
	posts         repository.PostRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	dispatcher    *recordingDispatcher
	directory     *cache.UserDirectory

	notify  *NotificationService
	follow  *FollowService
	post    *PostService
	comment *CommentService
	message *MessageService
	search  *SearchService
	account *UserService
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	e := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		follows:       repository.NewFollowRepository(db),
		posts:         repository.NewPostRepository(db),
		messages:      repository.NewMessageRepository(db),
		notifications: repository.NewNotificationRepository(db),
		dispatcher:    &recordingDispatcher{},
	}
	e.directory = cache.NewUserDirectory(nil, e.users.ListByUsernames)
	ff := featureflags.NewManager(flags)

	e.notify = NewNotificationService(e.notifications, e.directory, e.dispatcher)
	e.follow = NewFollowService(e.follows, e.users, e.notify)
	e.comment = NewCommentService(e.posts, e.notify, ff)
	e.post = NewPostService(e.posts, e.users, e.comment, e.notify, ff)
	e.message = NewMessageService(e.messages, e.users, e.directory, e.notify)
	e.search = NewSearchService(e.users, e.posts)
	e.account = NewUserService(e.users, e.follows, fakeTokens{}, e.directory)
	e.account.hashCost = bcrypt.MinCost
	return e
}

// user creates an account and returns it as an Actor.
func (e *testEnv) user(t *testing.T, username string) Actor {
	t.Helper()
	u := testutil.CreateUser(t, e.db, username)
	return Actor{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func (e *testEnv) inbox(t *testing.T, username string) []models.Notification {
	t.Helper()
	list, err := e.notifications.ListForRecipient(context.Background(), username, 0)
	require.NoError(t, err)
	return list
}

func (e *testEnv) inboxOfType(t *testing.T, username string, typ models.NotificationType) []models.Notification {
	t.Helper()
	var out []models.Notification
	for _, n := range e.inbox(t, username) {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
