package router

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/repository"
	"github.com/mintcart/mintcart-backend/internal/services"
)

const productContract = "0x000000000000000000000000000000000000C0FE"

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, doc services.ProductMetadata) (string, error) {
	return "Qm" + doc.Slug, nil
}

type stubFactory struct {
	creates int
}

func (f *stubFactory) Factory(ctx context.Context, chainID int64, signer services.Signer) (services.ProductFactory, error) {
	return f, nil
}

func (f *stubFactory) SupportsChain(chainID int64) bool { return true }

func (f *stubFactory) Address() string { return "0x00000000000000000000000000000000000FAC70" }

func (f *stubFactory) Create(ctx context.Context, tokenURI, slug, owner string, price *big.Int, supply uint64) (services.PendingTransaction, error) {
	f.creates++
	return f.Transaction("0xfeed"), nil
}

func (f *stubFactory) Transaction(hash string) services.PendingTransaction {
	return stubTx(hash)
}

type stubTx string

func (t stubTx) Hash() string { return string(t) }

func (t stubTx) Wait(ctx context.Context) (*services.ConfirmedReceipt, error) {
	return &services.ConfirmedReceipt{TxHash: string(t), BlockNumber: 1, ContractAddress: productContract}, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	server  *httptest.Server
	client  *http.Client
	factory *stubFactory
	address string
	token   string
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Session:     config.SessionConfig{Secret: "test-session-secret", Name: "mintcart_session"},
		Backend:     config.BackendConfig{APIKey: "record-key"},
		Frontend:    config.FrontendConfig{BaseURL: "https://mintcart.xyz", DashboardPath: "/dashboard"},
		I18n:        config.I18nConfig{DefaultLocale: "en"},
	}

	suite.server = httptest.NewServer(nil)
	suite.factory = &stubFactory{}
	workflow := services.NewCreateProductService(
		stubPublisher{},
		suite.factory,
		services.NewRecordClient(suite.server.URL, cfg.Backend.APIKey, time.Second),
		services.CreateProductOptions{
			DashboardPath: "/dashboard",
			Intents:       repository.NewMemoryIntentRepository(),
		},
	)
	suite.server.Config.Handler = Initialize(cfg, Dependencies{
		Products: repository.NewMemoryProductRepository(),
		Workflow: workflow,
	})

	jar, err := cookiejar.New(nil)
	require.NoError(suite.T(), err)
	suite.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	suite.address, suite.token = "", ""
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *RouterTestSuite) do(method, path string, body interface{}, headers map[string]string) (*http.Response, apiResponse) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, reader)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var parsed apiResponse
	json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func (suite *RouterTestSuite) login() {
	resp, body := suite.do(http.MethodGet, "/v1/auth/nonce", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var nonce struct {
		Message string `json:"message"`
	}
	require.NoError(suite.T(), json.Unmarshal(body.Data, &nonce))

	key, err := crypto.GenerateKey()
	require.NoError(suite.T(), err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(nonce.Message)), key)
	require.NoError(suite.T(), err)
	sig[crypto.RecoveryIDOffset] += 27

	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	resp, body = suite.do(http.MethodPost, "/v1/auth/login", map[string]interface{}{
		"address":   address,
		"chain_id":  1,
		"signature": hexutil.Encode(sig),
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var login struct {
		Address string `json:"address"`
		Token   string `json:"token"`
	}
	require.NoError(suite.T(), json.Unmarshal(body.Data, &login))
	suite.address = login.Address
	suite.token = login.Token
	assert.Equal(suite.T(), strings.ToLower(address), login.Address)
}

func (suite *RouterTestSuite) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + suite.token}
}

func mugForm() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Mug",
		"description": "A mug",
		"slug":        "mug",
		"price":       "0.05",
		"supply":      "10",
	}
}

func (suite *RouterTestSuite) TestHealth() {
	resp, _ := suite.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func (suite *RouterTestSuite) TestCreateProductRequiresWallet() {
	resp, body := suite.do(http.MethodPost, "/v1/products", mugForm(), nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(suite.T(), body.Error)
	assert.Equal(suite.T(), "WALLET_NOT_CONNECTED", body.Error.Code)

	resp, body = suite.do(http.MethodGet, "/v1/auth/me", nil, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(suite.T(), "WALLET_NOT_CONNECTED", body.Error.Code)
}

func (suite *RouterTestSuite) TestCreateProductEndToEnd() {
	suite.login()

	resp, body := suite.do(http.MethodPost, "/v1/products", mugForm(), suite.bearer())
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode, body.Error)
	assert.Equal(suite.T(), "/dashboard", resp.Header.Get("Location"))

	var created struct {
		Redirect  string `json:"redirect"`
		TxHash    string `json:"tx_hash"`
		PublicURL string `json:"public_url"`
		Product   struct {
			TokenURI string `json:"tokenUri"`
			Sold     uint64 `json:"sold"`
		} `json:"product"`
	}
	require.NoError(suite.T(), json.Unmarshal(body.Data, &created))
	assert.Equal(suite.T(), "/dashboard", created.Redirect)
	assert.Equal(suite.T(), "0xfeed", created.TxHash)
	assert.Equal(suite.T(), "ipfs://Qmmug", created.Product.TokenURI)
	assert.Equal(suite.T(), "https://mintcart.xyz/"+suite.address+"/mug", created.PublicURL)

	// the record was written through the storefront API
	resp, body = suite.do(http.MethodGet, "/api/1/"+suite.address+"/products/mug", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var record struct {
		Contract string `json:"contract"`
		Price    string `json:"price"`
		Supply   uint64 `json:"supply"`
		Sold     uint64 `json:"sold"`
	}
	require.NoError(suite.T(), json.Unmarshal(body.Data, &record))
	assert.Equal(suite.T(), strings.ToLower(productContract), record.Contract)
	assert.Equal(suite.T(), "0.05", record.Price)
	assert.Equal(suite.T(), uint64(10), record.Supply)
	assert.Equal(suite.T(), uint64(0), record.Sold)

	resp, _ = suite.do(http.MethodGet, "/api/1/"+suite.address+"/products", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "1", resp.Header.Get("X-Total-Count"))

	resp, body = suite.do(http.MethodGet, "/v1/products/intents", nil, suite.bearer())
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), string(body.Data), `"status":"persisted"`)

	// same slug again
	resp, body = suite.do(http.MethodPost, "/v1/products", mugForm(), suite.bearer())
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	assert.Equal(suite.T(), "DUPLICATE_PRODUCT", body.Error.Code)
	assert.Equal(suite.T(), 1, suite.factory.creates)
}

func (suite *RouterTestSuite) TestCreateProductWithCookieSession() {
	suite.login()

	resp, _ := suite.do(http.MethodGet, "/v1/auth/me", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	form := mugForm()
	form["supply"] = 3
	resp, body := suite.do(http.MethodPost, "/v1/products", form, nil)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode, body.Error)
}

func (suite *RouterTestSuite) TestCreateProductValidation() {
	suite.login()

	form := mugForm()
	form["price"] = "0.0000000000000000001"
	resp, body := suite.do(http.MethodPost, "/v1/products", form, suite.bearer())
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	assert.Equal(suite.T(), "INVALID_AMOUNT", body.Error.Code)

	form = mugForm()
	form["slug"] = "Not A Slug"
	resp, body = suite.do(http.MethodPost, "/v1/products", form, suite.bearer())
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	assert.Equal(suite.T(), "INVALID_DRAFT", body.Error.Code)

	form = mugForm()
	form["supply"] = "-3"
	resp, body = suite.do(http.MethodPost, "/v1/products", form, suite.bearer())
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	assert.Equal(suite.T(), "INVALID_DRAFT", body.Error.Code)

	assert.Equal(suite.T(), 0, suite.factory.creates)
}

func (suite *RouterTestSuite) TestNonceCookieWorksOverHTTP() {
	resp, _ := suite.do(http.MethodGet, "/v1/auth/nonce", nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "mintcart_session" {
			session = c
		}
	}
	require.NotNil(suite.T(), session)
	assert.False(suite.T(), session.Secure)
	assert.True(suite.T(), session.HttpOnly)
	assert.Equal(suite.T(), http.SameSiteLaxMode, session.SameSite)
	assert.Equal(suite.T(), "/", session.Path)

	serverURL, err := url.Parse(suite.server.URL)
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), suite.client.Jar.Cookies(serverURL))
}

func TestSessionStoreSecureInProduction(t *testing.T) {
	cfg := &config.Config{
		Environment: "production",
		JWT:         config.JWTConfig{AccessTokenTTL: 1},
		Session:     config.SessionConfig{Secret: "s", Name: "mintcart_session"},
	}
	r := gin.New()
	r.Use(sessions.Sessions(cfg.Session.Name, sessionStore(cfg)))
	r.GET("/", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("k", "v")
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func (suite *RouterTestSuite) TestLoginRequiresNonce() {
	resp, _ := suite.do(http.MethodPost, "/v1/auth/login", map[string]interface{}{
		"address":   "0x0000000000000000000000000000000000000abc",
		"chain_id":  1,
		"signature": "0x00",
	}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
}

func (suite *RouterTestSuite) TestRecordAPI() {
	owner := "0x0000000000000000000000000000000000000ABC"
	record := map[string]interface{}{
		"contract":    productContract,
		"name":        "Cup",
		"description": "A cup",
		"slug":        "cup",
		"tokenUri":    "ipfs://Qmcup",
		"price":       0.01,
		"supply":      5,
		"sold":        0,
	}

	resp, _ := suite.do(http.MethodPost, "/api/1/"+owner+"/products", record, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)

	key := map[string]string{"X-API-Key": "record-key"}
	resp, body := suite.do(http.MethodPost, "/api/1/"+owner+"/products", record, key)
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode, body.Error)

	resp, body = suite.do(http.MethodPost, "/api/1/"+owner+"/products", record, key)
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	assert.Equal(suite.T(), "CONFLICT", body.Error.Code)

	resp, _ = suite.do(http.MethodPost, "/api/abc/"+owner+"/products", record, key)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)

	resp, _ = suite.do(http.MethodGet, "/api/1/"+owner+"/products/mug", nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)

	// addresses are case-insensitive
	resp, _ = suite.do(http.MethodGet, "/api/1/"+strings.ToLower(owner)+"/products/cup", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
