package server

import (
	"context"
	"net/http"
	"net/http/httptest"

	"EchoFM/billing"
	"EchoFM/config"
	"EchoFM/core/entitlement"
	"EchoFM/core/likes"
	"EchoFM/core/player"
	"EchoFM/model"
)

// 测试用的内存仓库与支付桩

type fakeUserRepo struct {
	users map[int64]*model.User
}

func (f *fakeUserRepo) CreateUser(user *model.User) (int64, error) { return 0, nil }
func (f *fakeUserRepo) GetUserByID(id int64) (*model.User, error)  { return f.users[id], nil }
func (f *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeSongRepo struct {
	songs map[int64]*model.Song
}

func (f *fakeSongRepo) CreateSong(song *model.Song) (int64, error) { return 0, nil }
func (f *fakeSongRepo) GetSongByID(id int64) (*model.Song, error)  { return f.songs[id], nil }
func (f *fakeSongRepo) GetAllSongs() ([]*model.Song, error) {
	var out []*model.Song
	for _, s := range f.songs {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeSongRepo) SearchSongsByTitle(title string) ([]*model.Song, error) { return nil, nil }
func (f *fakeSongRepo) GetSongBySongPath(songPath string) (*model.Song, error) { return nil, nil }

type fakeLikedRepo struct {
	liked map[[2]int64]bool
}

func newFakeLikedRepo() *fakeLikedRepo {
	return &fakeLikedRepo{liked: make(map[[2]int64]bool)}
}

func (f *fakeLikedRepo) IsLiked(ctx context.Context, userID, songID int64) (bool, error) {
	return f.liked[[2]int64{userID, songID}], nil
}
func (f *fakeLikedRepo) Like(ctx context.Context, userID, songID int64) error {
	f.liked[[2]int64{userID, songID}] = true
	return nil
}
func (f *fakeLikedRepo) Unlike(ctx context.Context, userID, songID int64) error {
	delete(f.liked, [2]int64{userID, songID})
	return nil
}
func (f *fakeLikedRepo) GetLikedSongs(ctx context.Context, userID int64) ([]*model.Song, error) {
	return nil, nil
}

type fakeBillingRepo struct {
	customers map[int64]*model.Customer
	subs      map[int64]*model.Subscription
	prices    map[string]*model.Price
	products  []*model.Product
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		customers: make(map[int64]*model.Customer),
		subs:      make(map[int64]*model.Subscription),
		prices:    make(map[string]*model.Price),
	}
}

func (f *fakeBillingRepo) GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	return f.customers[userID], nil
}
func (f *fakeBillingRepo) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	f.customers[customer.UserID] = customer
	return nil
}
func (f *fakeBillingRepo) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	return f.subs[userID], nil
}
func (f *fakeBillingRepo) GetActiveProductsWithPrices(ctx context.Context) ([]*model.Product, error) {
	return f.products, nil
}
func (f *fakeBillingRepo) GetPriceByID(ctx context.Context, priceID string) (*model.Price, error) {
	return f.prices[priceID], nil
}

type fakeProvider struct {
	customerCalls int
	sessionCalls  int
	sessionErr    error
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email string, userID int64) (string, error) {
	f.customerCalls++
	return "cus_test", nil
}
func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, customerID string, params billing.CheckoutParams) (string, error) {
	f.sessionCalls++
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return "cs_test", nil
}
func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://billing.example.com/portal", nil
}

// testEnv 组合一套全内存的处理器依赖
type testEnv struct {
	handler  *APIHandler
	users    *fakeUserRepo
	songs    *fakeSongRepo
	likedDB  *fakeLikedRepo
	billing  *fakeBillingRepo
	provider *fakeProvider
	hub      *player.Hub
	selector player.Selector
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		SiteURL:        "https://echofm.example.com",
		MinioPublicURL: "http://storage.example.com",
		MinioBucket:    "songs",
	}

	users := &fakeUserRepo{users: map[int64]*model.User{
		1: {ID: 1, Username: "ada", Email: "ada@example.com"},
		2: {ID: 2, Username: "linus", Email: "linus@example.com"},
	}}
	songs := &fakeSongRepo{songs: map[int64]*model.Song{
		10: {ID: 10, Title: "First", Author: "A", SongPath: "audio/first.mp3"},
		20: {ID: 20, Title: "Second", Author: "B", SongPath: "audio/second.mp3"},
	}}
	likedDB := newFakeLikedRepo()
	billingRepo := newFakeBillingRepo()
	billingRepo.prices["price_month"] = &model.Price{ID: "price_month", Active: true, Currency: "usd", UnitAmount: 999}
	// 用户2已订阅
	billingRepo.subs[2] = &model.Subscription{ID: "sub_2", UserID: 2, Status: model.SubscriptionStatusActive}

	provider := &fakeProvider{}
	hub := player.NewHub()
	selector := player.NewMemorySelector()

	handler := NewAPIHandler(
		users,
		songs,
		billingRepo,
		likes.NewRegistry(likedDB),
		selector,
		hub,
		entitlement.NewStore(users, billingRepo),
		billing.NewCheckout(cfg, billingRepo, provider),
		cfg,
	)

	return &testEnv{
		handler:  handler,
		users:    users,
		songs:    songs,
		likedDB:  likedDB,
		billing:  billingRepo,
		provider: provider,
		hub:      hub,
		selector: selector,
	}
}

// asUser 在请求上下文里注入登录态，0表示匿名
func asUser(r *http.Request, userID int64) *http.Request {
	if userID == 0 {
		return r
	}
	ctx := context.WithValue(r.Context(), "userID", userID)
	return r.WithContext(ctx)
}

func record(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}
