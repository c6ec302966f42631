package tests

import (
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/fotoescola/apps/api/echo"
	"github.com/trezcool/fotoescola/core/user"
	testutil "github.com/trezcool/fotoescola/tests"
)

var errForbidden = httpErr{Error: "permissão negada"}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, createdFrom, createdTo time.Time, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now().Truncate(time.Second)
	at := func(h int) time.Time { return now.Add(time.Duration(h) * time.Hour) }

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true, at(1))
	bruno := testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "", []string{user.RoleStudent}, false, at(2))
	carla := testutil.CreateUser(t, app.usrRepo, "Carla Dias", "carla", "carla@fotoescola.com.br", "", []string{user.RoleInstructor}, true, at(3))
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true, at(4))
	owner := testutil.CreateUser(t, app.usrRepo, "Dona", "dona", "dona@fotoescola.com.br", "", []string{user.RoleAdminOwner}, true, at(5))

	adminToken := app.token(t, admin)
	empty := marchallList(t)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", path: "/v1/users", token: app.token(t, ana), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, owner, admin, carla, bruno, ana)},
		// filtering
		{name: "search (unknown)", path: path("xyz", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: empty},
		{name: "search=LIMA", path: path("LIMA", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, bruno)},
		{name: "role=admin:", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleAdmin), token: adminToken, wantData: marchallList(t, owner, admin)},
		{
			name: "role=instructor:,student:", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleInstructor, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, carla, bruno, ana),
		},
		{name: "is_active=false", path: path("", "", time.Time{}, time.Time{}, bPtr(false)), token: adminToken, wantData: marchallList(t, bruno)},
		{name: "created_from", path: path("", "", at(4), time.Time{}, nil), token: adminToken, wantData: marchallList(t, owner, admin)},
		{name: "created_from - created_to", path: path("", "", at(2), at(3), nil), token: adminToken, wantData: marchallList(t, carla, bruno)},
		{name: "created_from - created_to (empty)", path: path("", "", at(6), at(7), nil), token: adminToken, wantData: empty},
		// ordering
		{name: "order by created_at", path: path("", "created_at", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, ana, bruno, carla, admin, owner)},
		{name: "order by -is_active,name", path: path("", "-is_active,name", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, admin, ana, carla, owner, bruno)},
		{
			name: "filtering & ordering", path: path("", "name", time.Time{}, time.Time{}, nil, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, ana, bruno),
		},
	})
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	bruno := testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/users/" + ana.ID, wantCode: http.StatusUnauthorized},
		{name: "self", path: "/v1/users/" + ana.ID, token: app.token(t, ana), wantData: marchallObj(t, ana)},
		{name: "someone else", path: "/v1/users/" + bruno.ID, token: app.token(t, ana), wantCode: http.StatusNotFound},
		{name: "admin", path: "/v1/users/" + bruno.ID, token: app.token(t, admin), wantData: marchallObj(t, bruno)},
		{name: "unknown", path: "/v1/users/nope", token: app.token(t, admin), wantCode: http.StatusNotFound},
		{name: "me", path: "/v1/me", token: app.token(t, ana), wantData: marchallObj(t, ana)},
	})
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)

	runHTTPTests(t, app, []httpTest{
		{
			name: "student cannot change roles", method: http.MethodPut, path: "/v1/users/" + ana.ID, token: app.token(t, ana),
			body: []byte(`{"roles":["admin:"]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin cannot grant owner", method: http.MethodPut, path: "/v1/users/" + ana.ID, token: app.token(t, admin),
			body: []byte(`{"roles":["admin:owner"]}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roles":"você não tem permissão para atribuir estes perfis"}`),
		},
		{
			name: "student renames themselves", method: http.MethodPut, path: "/v1/users/" + ana.ID, token: app.token(t, ana),
			body: []byte(`{"name":"Ana Souza Reis"}`),
		},
		{
			name: "new username too short", method: http.MethodPut, path: "/v1/users/" + ana.ID, token: app.token(t, ana),
			body: []byte(`{"username":"bia"}`), wantCode: http.StatusBadRequest,
		},
	})

	usr, err := app.usrRepo.GetUserByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza Reis", usr.Name)
	assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
}

func Test_userApi_destroy(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)
	owner := testutil.CreateUser(t, app.usrRepo, "Dona", "dona", "dona@fotoescola.com.br", "", []string{user.RoleAdminOwner}, true)
	adminToken := app.token(t, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "admin required", method: http.MethodDelete, path: "/v1/users/" + ana.ID, token: app.token(t, ana), wantCode: http.StatusForbidden},
		{name: "not themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "not a higher role", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "deleted", method: http.MethodDelete, path: "/v1/users/" + ana.ID, token: adminToken, wantCode: http.StatusNoContent},
	})

	_, err := app.usrRepo.GetUserByID(context.Background(), ana.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "F0to@Escola", []string{user.RoleStudent}, true)
	testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "F0to@Escola", []string{user.RoleStudent}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}
	method := http.MethodPost
	path := "/v1/users/login"

	runHTTPTests(t, app, []httpTest{
		{
			name: "required fields", method: method, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"este campo é obrigatório","password":"este campo é obrigatório"}`),
		},
		{
			name: "wrong password", method: method, path: path, body: login("ana", "errada"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "usuário ou senha inválidos"}),
		},
		{name: "unknown user", method: method, path: path, body: login("zeca", "F0to@Escola"), wantCode: http.StatusBadRequest},
		{
			name: "deactivated", method: method, path: path, body: login("bruno", "F0to@Escola"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "conta desativada"}),
		},
	})

	t.Run("by email, case-insensitive", func(t *testing.T) {
		req, rec := newRequest(method, path, login("ANA@fotoescola.com.br", "F0to@Escola"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		usr, err := app.usrRepo.GetUserByUsername(context.Background(), "ana")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	bruno := testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "", []string{user.RoleStudent}, false)
	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)

	stale := time.Now().Add(-2 * app.conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshable, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, ana, stale))
	require.NoError(t, err)

	expired := echoapi.GetUserClaims(app.conf, ana)
	expired.StandardClaims = jwt.StandardClaims{Subject: ana.ID, ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	expiredToken, err := echoapi.GenerateToken(app.conf, expired)
	require.NoError(t, err)

	method := http.MethodPost
	path := "/v1/users/token-refresh"

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: method, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "expired token", method: method, path: path, token: expiredToken, wantCode: http.StatusUnauthorized},
		{
			name: "inactive user", method: method, path: path, token: app.token(t, bruno), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "conta desativada"}),
		},
		{
			name: "refresh period over", method: method, path: path, token: unrefreshable, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "a sessão expirou, faça login novamente"}),
		},
	})

	t.Run("refreshed", func(t *testing.T) {
		req, rec := newAuthRequest(method, path, app.token(t, ana))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)

	newUser := func(uname, email string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            "Nova Pessoa",
			Username:        uname,
			Email:           email,
			Password:        "Nov@Senha42",
			PasswordConfirm: "Nov@Senha42",
			Roles:           roles,
		})
	}
	method := http.MethodPost
	path := "/v1/users/register"
	token := app.token(t, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "admin required", method: method, path: path, token: app.token(t, testutil.CreateUser(t, app.usrRepo, "Carla", "carla", "", "", []string{user.RoleInstructor}, true)), body: newUser("nova", "", user.RoleStudent), wantCode: http.StatusForbidden},
		{name: "username taken", method: method, path: path, token: token, body: newUser("ana", "", user.RoleStudent), wantCode: http.StatusBadRequest},
		{name: "email taken", method: method, path: path, token: token, body: newUser("", "ana@fotoescola.com.br", user.RoleStudent), wantCode: http.StatusBadRequest},
		{name: "role above own", method: method, path: path, token: token, body: newUser("nova", "", user.RoleAdminOwner), wantCode: http.StatusBadRequest},
		{name: "created", method: method, path: path, token: token, body: newUser("nova", "nova@fotoescola.com.br", user.RoleStudent), wantCode: http.StatusCreated},
	})

	usr, err := app.usrRepo.GetUserByUsername(context.Background(), "nova")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Nov@Senha42"))
}

func Test_userApi_resetPassword(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "", []string{user.RoleStudent}, false)

	success := marchallObj(t, echoapi.SuccessResponse{Success: "Se o e-mail informado estiver associado a uma conta ativa, " +
		"você receberá em breve as instruções para redefinir a sua senha."})
	linkRegex := regexp.MustCompile("/password-reset/.+/.+")

	tests := []struct {
		httpTest
		sentTo *mail.Address
	}{
		{httpTest: httpTest{name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"este campo é obrigatório"}`)}},
		{httpTest: httpTest{name: "invalid email", body: []byte(`{"email":"ana"}`), wantCode: http.StatusBadRequest}},
		{httpTest: httpTest{name: "unknown email", body: []byte(`{"email":"zeca@fotoescola.com.br"}`), wantData: success}},
		{httpTest: httpTest{name: "inactive user", body: []byte(`{"email":"bruno@fotoescola.com.br"}`), wantData: success}},
		{
			httpTest: httpTest{name: "known email", body: []byte(`{"email":"ANA@fotoescola.com.br"}`), wantData: success},
			sentTo:   &mail.Address{Name: ana.Name, Address: ana.Email},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			app.mailSvc.Reset()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			sent := app.mailSvc.SentMessages()
			if tt.sentTo == nil {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			assert.Equal(t, *tt.sentTo, sent[0].To[0])
			assert.Contains(t, sent[0].TextContent, ana.Name)
			assert.Regexp(t, linkRegex, sent[0].TextContent)
			assert.Regexp(t, linkRegex, sent[0].HTMLContent)
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "velha", []string{user.RoleStudent}, true)
	uid := user.EncodeUID(ana)
	token := user.MakeResetToken(app.usrSvc, ana)

	reset := func(token, uid, pwd, confirm string) []byte {
		return marchallObj(t, user.ResetUserPassword{Token: token, UID: uid, Password: pwd, PasswordConfirm: confirm})
	}
	invalidLink := marchallObj(t, httpErr{Error: "link de redefinição de senha inválido ou expirado"})
	method := http.MethodPost
	path := "/v1/users/password-reset-confirm"

	runHTTPTests(t, app, []httpTest{
		{name: "required fields", method: method, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{
			name: "password too short", method: method, path: path, body: reset("x", "x", "Ab1@", "Ab1@"), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"a senha deve conter pelo menos 8 caracteres"}`),
		},
		{
			name: "password without complexity", method: method, path: path, body: reset("x", "x", "fotografia", "fotografia"), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"a senha deve conter ao menos 1 letra maiúscula, 1 letra minúscula, 1 dígito e 1 caractere especial"}`),
		},
		{name: "confirmation mismatch", method: method, path: path, body: reset("x", "x", "N0v@Senha", "outra"), wantCode: http.StatusBadRequest},
		{name: "invalid uid", method: method, path: path, body: reset(token, "bm9wZQ", "N0v@Senha", "N0v@Senha"), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "invalid token", method: method, path: path, body: reset("abc-def", uid, "N0v@Senha", "N0v@Senha"), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{
			name: "password reset", method: method, path: path, body: reset(token, uid, "N0v@Senha", "N0v@Senha"),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "A sua senha foi redefinida."}),
		},
		{name: "token used up", method: method, path: path, body: reset(token, uid, "Outr@Senha1", "Outr@Senha1"), wantCode: http.StatusBadRequest, wantData: invalidLink},
	})

	usr, err := app.usrRepo.GetUserByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N0v@Senha"))
}

func Test_userApi_roles(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)

	runHTTPTests(t, app, []httpTest{
		{name: "roles", path: "/v1/users/roles", token: app.token(t, admin), wantData: marchallObj(t, user.Roles)},
	})
}
