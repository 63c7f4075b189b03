package service

import (
	"context"
	"errors"
	"testing"

	"devgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotificationRepo struct{}

func (failingNotificationRepo) Create(context.Context, *models.Notification) error {
	return errors.New("db down")
}

func (failingNotificationRepo) ListForRecipient(context.Context, string, int) ([]models.Notification, error) {
	return nil, errors.New("db down")
}

func (failingNotificationRepo) MarkRead(context.Context, string, []string) (int64, error) {
	return 0, errors.New("db down")
}

func TestNotificationService_Notify(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	stored, err := e.notify.Notify(ctx,
		NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationLike, Content: models.ContentLiked, PostID: "p1"},
		NotifyInput{Sender: alice.Username, Recipient: "ghost", Type: models.NotificationLike, Content: models.ContentLiked},
	)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "bob", stored[0].Recipient)
	require.NotNil(t, stored[0].User)
	assert.Equal(t, "alice", stored[0].User.Username)
	assert.Equal(t, 1, e.dispatcher.count())

	inbox := e.inbox(t, "bob")
	require.Len(t, inbox, 1)
	assert.False(t, inbox[0].Read)
	assert.Equal(t, "p1", inbox[0].PostID)
}

func TestNotificationService_PreferencesSuppress(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	off := false
	_, err := e.account.UpdateMe(ctx, bob, UpdateMeInput{
		NotificationSettings: &NotificationSettingsPatch{Likes: &off},
	})
	require.NoError(t, err)

	stored, err := e.notify.Notify(ctx,
		NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationLike, Content: models.ContentLiked},
		NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationComment, Content: models.ContentCommented},
	)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationComment, stored[0].Type)
}

func TestNotificationService_DispatchFailureIsNotFatal(t *testing.T) {
	e := newTestEnv(t, "")
	e.dispatcher.err = errors.New("hub offline")
	alice := e.user(t, "alice")
	e.user(t, "bob")

	stored, err := e.notify.Notify(context.Background(),
		NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationFollow, Content: models.ContentFollowed},
	)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, e.inbox(t, "bob"), 1)
}

func TestNotificationService_EmitSwallowsErrors(t *testing.T) {
	e := newTestEnv(t, "")
	e.user(t, "alice")
	e.user(t, "bob")
	svc := NewNotificationService(failingNotificationRepo{}, e.directory, nil)

	assert.NotPanics(t, func() {
		svc.Emit(context.Background(), NotifyInput{Sender: "alice", Recipient: "bob", Type: models.NotificationLike})
	})

	var nilSvc *NotificationService
	assert.NotPanics(t, func() {
		nilSvc.Emit(context.Background(), NotifyInput{Sender: "alice", Recipient: "bob"})
	})
}

func TestNotificationService_ListEnrichesSenders(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	require.NoError(t, e.notifications.Create(ctx, &models.Notification{
		Sender: "deleted_user", Recipient: "bob", Type: models.NotificationLike, Content: models.ContentLiked,
	}))
	_, err := e.notify.Notify(ctx, NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationFollow, Content: models.ContentFollowed})
	require.NoError(t, err)

	list, err := e.notify.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 2)

	bySender := map[string]*models.UserSummary{}
	for _, n := range list {
		bySender[n.Sender] = n.User
	}
	assert.Equal(t, "alice", bySender["alice"].Username)
	assert.Equal(t, UnknownUsername, bySender["deleted_user"].Username)
	assert.Equal(t, models.UnknownAvatar, bySender["deleted_user"].Avatar)
}

func TestNotificationService_MarkRead(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")
	e.user(t, "carol")

	stored, err := e.notify.Notify(ctx,
		NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationLike, Content: models.ContentLiked},
		NotifyInput{Sender: alice.Username, Recipient: "carol", Type: models.NotificationLike, Content: models.ContentLiked},
	)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	bobID, carolID := stored[0].ID, stored[1].ID

	t.Run("empty ids", func(t *testing.T) {
		assertValidationError(t, e.notify.MarkRead(ctx, "bob", nil))
	})

	t.Run("foreign ids", func(t *testing.T) {
		assertCode(t, e.notify.MarkRead(ctx, "bob", []string{carolID}), models.CodeNotFound)
		assert.False(t, e.inbox(t, "carol")[0].Read)
	})

	t.Run("own ids", func(t *testing.T) {
		require.NoError(t, e.notify.MarkRead(ctx, "bob", []string{bobID, carolID}))
		assert.True(t, e.inbox(t, "bob")[0].Read)
		assert.False(t, e.inbox(t, "carol")[0].Read)
	})
}

func TestNotificationService_ListIsNotTruncated(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	inputs := make([]NotifyInput, 0, 60)
	for i := 0; i < 60; i++ {
		inputs = append(inputs, NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationMessage, Content: models.ContentMessaged})
	}
	_, err := e.notify.Notify(ctx, inputs...)
	require.NoError(t, err)

	list, err := e.notify.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, list, 60)
}

func TestNotificationService_MarkReadTwice(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()
	alice := e.user(t, "alice")
	e.user(t, "bob")

	stored, err := e.notify.Notify(ctx, NotifyInput{Sender: alice.Username, Recipient: "bob", Type: models.NotificationMessage, Content: models.ContentMessaged})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	require.NoError(t, e.notify.MarkRead(ctx, "bob", []string{stored[0].ID}))
	err = e.notify.MarkRead(ctx, "bob", []string{stored[0].ID})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
