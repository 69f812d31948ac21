package tests

import (
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/apps/api/echo"
	"github.com/trezcool/educore/core/tenant"
	"github.com/trezcool/educore/core/user"
	"github.com/trezcool/educore/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	db.Reset()

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

	base := time.Now().UTC().Truncate(time.Second).Add(-10 * time.Hour)
	t1 := base.Add(1 * time.Hour)
	t2 := base.Add(2 * time.Hour)
	t4 := base.Add(4 * time.Hour)
	t5 := base.Add(5 * time.Hour)

	usr2 := testutil.CreateUser(t, usrRepo, schoolA, "King", "user02", "king@test.cd", "", nil, true, base)
	student := testutil.CreateUser(t, usrRepo, schoolA, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true, base.Add(10*time.Minute))
	principal := testutil.CreateUser(t, usrRepo, schoolA, "Principal", "princip", "princip@test.cd", "", []string{user.RoleAdminPrincipal}, true, base.Add(20*time.Minute))
	naughty := testutil.CreateUser(t, usrRepo, schoolA, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false, base.Add(30*time.Minute)) // 😂
	usr1 := testutil.CreateUser(t, usrRepo, schoolA, "User", "awe", "awe@test.cd", "", nil, true, t1)
	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, t2)
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true, base.Add(3*time.Hour))
	other := testutil.CreateUser(t, usrRepo, schoolB, "Other User", "other", "other@test.cd", "", []string{user.RoleAdmin}, true, base.Add(4*time.Hour+30*time.Minute))
	root := testutil.CreateUser(t, usrRepo, "", "Root", "root", "root@test.cd", "", []string{user.RoleSuperAdmin}, true, base.Add(6*time.Hour))

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Get all (own school)", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, teacher, admin, usr1, naughty, principal, student, usr2),
		},
		{name: "Other school admin", path: "/v1/users", token: getToken(t, other), wantData: marchallList(t, other)},
		{
			name: "Super admin sees all", path: "/v1/users", token: getToken(t, root),
			wantData: marchallList(t, root, other, teacher, admin, usr1, naughty, principal, student, usr2),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: empty},
		{
			name: "search=USE", path: path("USE", "", time.Time{}, time.Time{}, nil),
			token: adminToken, wantData: marchallList(t, usr1, student, usr2),
		},
		{name: "role (unknown)", path: path("", "", time.Time{}, time.Time{}, nil, "lol"), token: adminToken, wantData: empty},
		{
			name: "role=admin:", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, admin, principal),
		},
		{
			name: "role=teacher:,student:", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleTeacher, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, teacher, naughty, student),
		},
		{
			name: "is_active=true", path: path("", "", time.Time{}, time.Time{}, bPtr(true)),
			token: adminToken, wantData: marchallList(t, teacher, admin, usr1, principal, student, usr2),
		},
		{name: "is_active=false", path: path("", "", time.Time{}, time.Time{}, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "created_from", path: path("", "", t1, time.Time{}, nil),
			token: adminToken, wantData: marchallList(t, teacher, admin, usr1),
		},
		{
			name: "created_from (other TZ)", path: path("", "", t1.In(time.FixedZone("EAT", 3*60*60)), time.Time{}, nil),
			token: adminToken, wantData: marchallList(t, teacher, admin, usr1),
		},
		{
			name: "created_to", path: path("", "", time.Time{}, t2, nil),
			token: adminToken, wantData: marchallList(t, admin, usr1, naughty, principal, student, usr2),
		},
		{name: "created_from - created_to (other school only)", path: path("", "", t4, t5, nil), token: adminToken, wantData: empty},
		{name: "created_from - created_to (found)", path: path("", "", t1, t2, nil), token: adminToken, wantData: marchallList(t, admin, usr1)},
		{
			name: "invalid created_from", path: "/v1/users?created_from=lol", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"created_from": "invalid date"}),
		},
		{
			name: "all combo (found)", path: path("tea", "", t1, t5, bPtr(true), user.RoleTeacher),
			token: adminToken, wantData: marchallList(t, teacher),
		},
		// ordering
		{
			name: "order by created_at", path: path("", "created_at", time.Time{}, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, usr2, student, principal, naughty, usr1, admin, teacher),
		},
		{
			name: "order by is_active,-name", path: path("", "is_active,-name", time.Time{}, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, naughty, usr1, teacher, principal, usr2, student, admin),
		},
		{
			name: "filtering & ordering", path: path("", "name", time.Time{}, time.Time{}, nil, user.RoleTeacher, user.RoleStudent), token: adminToken,
			wantData: marchallList(t, student, naughty, teacher),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runHTTPTests(t, tests)
}

func Test_userApi_userCreate(t *testing.T) {
	db.Reset()

	owner := testutil.CreateUser(t, usrRepo, schoolA, "Owner", "owner", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	bursar := testutil.CreateUser(t, usrRepo, schoolA, "Bursar", "bursar", "bursar@test.cd", "", []string{user.RoleAdminBursar}, true)
	root := testutil.CreateUser(t, usrRepo, "", "Root", "root", "root@test.cd", "", []string{user.RoleSuperAdmin}, true)

	pwd := "LolC@t123"
	newUsr := func(uname string, roles ...string) user.NewUser {
		return user.NewUser{Name: "New " + uname, Username: uname, Password: pwd, PasswordConfirm: pwd, Roles: roles}
	}

	t.Run("school comes from the tenant", func(t *testing.T) {
		nu := newUsr("teacher1", user.RoleTeacher)
		nu.SchoolID = schoolB // ignored
		rec := serve(httpTest{method: http.MethodPost, path: "/v1/users/register", token: getToken(t, owner), body: marchallObj(t, nu)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, schoolA, usr.SchoolID)
		assert.Equal(t, "teacher1", usr.Username)
	})

	t.Run("super admin picks the school", func(t *testing.T) {
		nu := newUsr("ownerb", user.RoleAdminOwner)
		nu.SchoolID = schoolB
		rec := serve(httpTest{method: http.MethodPost, path: "/v1/users/register", token: getToken(t, root), body: marchallObj(t, nu)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, schoolB, usr.SchoolID)
	})

	runHTTPTests(t, []httpTest{
		{
			name: "cannot grant a higher role", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, bursar),
			body: marchallObj(t, newUsr("principal1", user.RoleAdminPrincipal)), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "username taken in another school", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, owner),
			body: marchallObj(t, newUsr("ownerb")), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "invalid password", method: http.MethodPost, path: "/v1/users/register", token: getToken(t, owner),
			body: marchallObj(t, user.NewUser{Name: "Lol", Username: "lolcat", Password: "lol", PasswordConfirm: "lol"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
	})
}

func Test_userApi_userDetail(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, schoolA, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, schoolB, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)

	adminToken := getToken(t, admin)
	tests := []httpTest{
		{name: "own profile", method: http.MethodGet, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher), wantData: marchallObj(t, teacher)},
		{name: "someone else's profile", method: http.MethodGet, path: "/v1/users/" + student.ID, token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin sees school users", method: http.MethodGet, path: "/v1/users/" + student.ID, token: adminToken, wantData: marchallObj(t, student)},
		{name: "admin cannot see other schools", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "unknown id", method: http.MethodGet, path: "/v1/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "non-admins cannot change roles", method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body: marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdminOwner}}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "non-admins cannot delete", method: http.MethodDelete, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	}
	runHTTPTests(t, tests)

	t.Run("update own name", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body: marchallObj(t, user.UpdateUser{Name: "Mwalimu"}),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, "Mwalimu", usr.Name)
		assert.Equal(t, teacher.Username, usr.Username)
		assert.Equal(t, schoolA, usr.SchoolID)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodDelete, path: "/v1/users/" + student.ID, token: adminToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := usrRepo.GetUser(tenant.AsSystem(context.Background()), user.GetFilter{ID: student.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete multiple skips other schools", func(t *testing.T) {
		v := url.Values{"id": []string{teacher.ID, other.ID}}
		rec := serve(httpTest{method: http.MethodDelete, path: "/v1/users?" + v.Encode(), token: adminToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		sysCtx := tenant.AsSystem(context.Background())
		_, err := usrRepo.GetUser(sysCtx, user.GetFilter{ID: teacher.ID})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = usrRepo.GetUser(sysCtx, user.GetFilter{ID: other.ID})
		assert.NoError(t, err)
	})
}

func Test_userApi_userLogin(t *testing.T) {
	db.Reset()

	pwd := "LolC@t123"
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", pwd, []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, usrRepo, schoolA, "N Dog", "ndog", "ndog@test.cd", pwd, []string{user.RoleStudent}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}
	runHTTPTests(t, []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/users/login", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: "this field is required", Password: "this field is required"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("teacher", "lol"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("lol", pwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", method: http.MethodPost, path: "/v1/users/login", body: login("ndog", pwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("token carries the school", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPost, path: "/v1/users/login", body: login("TEACHER@test.cd", pwd)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil })
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, claims.Subject)
		assert.Equal(t, schoolA, claims.SchoolID)
		assert.True(t, claims.IsTeacher)
		assert.False(t, claims.IsSuperAdmin)

		usr, err := usrRepo.GetUser(tenant.AsSystem(context.Background()), user.GetFilter{ID: teacher.ID})
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero(), "last login recorded")
	})
}

func Test_userApi_userRefreshToken(t *testing.T) {
	db.Reset()

	naughty := testutil.CreateUser(t, usrRepo, schoolA, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false) // 😂
	student := testutil.CreateUser(t, usrRepo, schoolA, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)

	now := time.Now()
	unrefreshableClaims := echoapi.GetUserClaims(conf, student, now.Add(-2*conf.Server.JWTRefreshExpirationDelta).Unix()) // older than threshold
	unrefreshableToken, err := echoapi.GenerateToken(conf, unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData echoapi.LoginResponse
				unmarshal(t, rec, &respData)
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	db.Reset()

	student := testutil.CreateUser(t, usrRepo, schoolA, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})
	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			mailSvc.Reset()

			rec := serve(tt)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			sent := mailSvc.SentMessages()
			if !extra.emailSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			msg := sent[0]
			assert.Equal(t, extra.to, msg.To[0])
			assert.True(t, strings.Contains(msg.TextContent, extra.to.Name), "text content contains the recipient's name")
			assert.True(t, strings.Contains(msg.HTMLContent, extra.to.Name), "HTML content contains the recipient's name")
			assert.Regexp(t, pathRegex, msg.TextContent)
			assert.Regexp(t, pathRegex, msg.HTMLContent)
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	db.Reset()

	student := testutil.CreateUser(t, usrRepo, schoolA, "Hero", "hero", "user3@test.cd", "lol", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(student)
	tokenMaker, ok := usrSvc.(interface{ MakeResetToken(user.User) string })
	require.True(t, ok)
	validToken := tokenMaker.MakeResetToken(student)

	invalidLink := marchallObj(t, httpErr{Error: user.ErrInvalidReset.Error()})
	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password is too common"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest, wantData: invalidLink,
			body: marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest, wantData: invalidLink,
			body: marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(tenant.AsSystem(context.Background()), user.GetFilter{ID: student.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshed.CheckPassword("LolC@t123"))
			}
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	runHTTPTests(t, []httpTest{
		{name: "roles", method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, admin), wantData: marchallObj(t, user.Roles)},
	})
}
