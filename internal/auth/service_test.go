package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
)

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newService(repo auth.Repository, delay time.Duration) *auth.Service {
	svc := auth.NewService(repo, auth.Config{Secret: []byte("test-secret"), TTL: time.Hour, Delay: delay})
	svc.SetClock(func() time.Time { return testNow })

	return svc
}

func TestService_Login(t *testing.T) {
	type testCase struct {
		name      string
		email     string
		password  string
		setupMock func(m *auth.MockRepository)
		wantErr   error
		wantUser  auth.User
	}

	tests := []testCase{
		{
			name:     "AnyWellFormedCredentials",
			email:    " demo@budgetnest.es ",
			password: "x",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().Load(gomock.Any()).Return(nil, nil)
				m.EXPECT().Save(gomock.Any(), &auth.User{ID: "1", Name: "Usuario Demo", Email: "demo@budgetnest.es"}).Return(nil)
			},
			wantUser: auth.User{ID: "1", Name: "Usuario Demo", Email: "demo@budgetnest.es"},
		},
		{
			name:     "ReturningUserKeepsProfile",
			email:    "ana@example.com",
			password: "secret",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().Load(gomock.Any()).Return(&auth.User{ID: "1", Name: "Ana", Email: "ANA@example.com", IsNew: true}, nil)
				m.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantUser: auth.User{ID: "1", Name: "Ana", Email: "ana@example.com", IsNew: true},
		},
		{
			name:      "MalformedEmail",
			email:     "not-an-email",
			password:  "secret",
			setupMock: func(m *auth.MockRepository) {},
			wantErr:   auth.ErrInvalidCredentials,
		},
		{
			name:      "EmptyPassword",
			email:     "ana@example.com",
			setupMock: func(m *auth.MockRepository) {},
			wantErr:   auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			tt.setupMock(repo)

			sess, err := newService(repo, 0).Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, sess.User)
			assert.NotEmpty(t, sess.Token)
			assert.Equal(t, testNow.Add(time.Hour), sess.ExpiresAt)
		})
	}
}

func TestService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	repo.EXPECT().Save(gomock.Any(), &auth.User{ID: "1", Name: "Ana", Email: "ana@example.com", IsNew: true}).Return(nil)

	svc := newService(repo, 0)

	sess, err := svc.Register(context.Background(), "Ana", "ana@example.com", "secreto")
	require.NoError(t, err)
	assert.True(t, sess.User.IsNew)

	_, err = svc.Register(context.Background(), "Ana", "ana@example.com", "123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.ErrorContains(t, err, "at least 6")

	_, err = svc.Register(context.Background(), "", "ana@example.com", "secreto")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_CurrentAndLogout(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc := newService(repo, 0)

	gomock.InOrder(
		repo.EXPECT().Load(gomock.Any()).Return(&auth.User{ID: "1", Name: "Ana"}, nil),
		repo.EXPECT().Clear(gomock.Any()).Return(nil),
		repo.EXPECT().Load(gomock.Any()).Return(nil, nil),
	)

	u, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	require.NoError(t, svc.Logout(ctx))

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestService_DismissWelcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	repo.EXPECT().Load(gomock.Any()).Return(&auth.User{ID: "1", Name: "Ana", IsNew: true}, nil)
	repo.EXPECT().Save(gomock.Any(), &auth.User{ID: "1", Name: "Ana"}).Return(nil)

	require.NoError(t, newService(repo, 0).DismissWelcome(context.Background()))
}

func TestService_Verify(t *testing.T) {
	svc := newService(nil, 0)
	u := auth.User{ID: "1", Name: "Ana", Email: "ana@example.com"}

	sess, err := svc.Issue(u)
	require.NoError(t, err)

	got, err := svc.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	t.Run("Tampered", func(t *testing.T) {
		_, err := svc.Verify(sess.Token + "x")
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("OtherSecret", func(t *testing.T) {
		other := auth.NewService(nil, auth.Config{Secret: []byte("other"), TTL: time.Hour})
		other.SetClock(func() time.Time { return testNow })

		_, err := other.Verify(sess.Token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		later := newService(nil, 0)
		later.SetClock(func() time.Time { return testNow.Add(2 * time.Hour) })

		_, err := later.Verify(sess.Token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("abc")
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})
}

func TestService_DelayHonorsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc := newService(repo, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Login(ctx, "ana@example.com", "secret")
	assert.ErrorIs(t, err, context.Canceled)
}
