package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/apps/api/echo"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/user"
	"github.com/trezcool/educore/tests"
)

func newLearnerData(admNo, first, last, grade string) learner.NewLearner {
	return learner.NewLearner{
		AdmissionNumber: admNo,
		FirstName:       first,
		LastName:        last,
		Gender:          learner.GenderMale,
		Grade:           grade,
	}
}

func Test_learnerApi_create(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	testutil.CreateLearner(t, lrnRepo, schoolA, "A-001", "Amani", "Otieno", learner.Grade1)
	testutil.CreateLearner(t, lrnRepo, schoolB, "B-001", "Baraka", "Mwangi", learner.Grade1)
	adminToken := getToken(t, admin)

	t.Run("admitted to the tenant's school", func(t *testing.T) {
		data := newLearnerData("B-001", "Chausiku", "Wanjiru", "grade_4") // same number as in school B
		data.SchoolID = schoolB                                           // ignored
		rec := serve(httpTest{method: http.MethodPost, path: "/v1/learners", token: adminToken, body: marchallObj(t, data)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var lrn learner.Learner
		unmarshal(t, rec, &lrn)
		assert.Equal(t, schoolA, lrn.SchoolID)
		assert.Equal(t, learner.Grade4, lrn.Grade)
		assert.Equal(t, learner.StatusActive, lrn.Status)
	})

	runHTTPTests(t, []httpTest{
		{
			name: "teachers cannot admit", method: http.MethodPost, path: "/v1/learners", token: getToken(t, teacher),
			body: marchallObj(t, newLearnerData("A-002", "Dalia", "Kamau", learner.Grade2)), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admission number taken", method: http.MethodPost, path: "/v1/learners", token: adminToken,
			body: marchallObj(t, newLearnerData("A-001", "Dalia", "Kamau", learner.Grade2)), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"admission_number": learner.ErrAdmissionNumberExists.Error() + ": A-001"}),
		},
		{
			name: "invalid grade", method: http.MethodPost, path: "/v1/learners", token: adminToken,
			body: marchallObj(t, newLearnerData("A-002", "Dalia", "Kamau", "GRADE_12")), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "invalid grade"}),
		},
	})
}

func Test_learnerApi_createMany(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	runHTTPTests(t, []httpTest{
		{
			name: "repeated admission number", method: http.MethodPost, path: "/v1/learners/bulk", token: adminToken,
			body: marchallList(t,
				newLearnerData("A-001", "Amani", "Otieno", learner.Grade1),
				newLearnerData("A-001", "Baraka", "Mwangi", learner.Grade1),
			),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"1.admission_number": learner.ErrAdmissionNumberExists.Error() + ": duplicates item 0"}),
		},
	})

	t.Run("all admitted", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost, path: "/v1/learners/bulk", token: adminToken,
			body: marchallList(t,
				newLearnerData("A-001", "Amani", "Otieno", learner.Grade1),
				newLearnerData("A-002", "Baraka", "Mwangi", learner.GradePP1),
				newLearnerData("A-003", "Chausiku", "Wanjiru", learner.Grade9),
			),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var learners []learner.Learner
		unmarshal(t, rec, &learners)
		require.Len(t, learners, 3)
		for _, lrn := range learners {
			assert.Equal(t, schoolA, lrn.SchoolID)
			assert.NotEmpty(t, lrn.ID)
		}
	})

	t.Run("none admitted when one is taken", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost, path: "/v1/learners/bulk", token: adminToken,
			body: marchallList(t,
				newLearnerData("A-004", "Dalia", "Kamau", learner.Grade1),
				newLearnerData("A-002", "Eli", "Njoroge", learner.Grade1),
			),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = serve(httpTest{method: http.MethodGet, path: "/v1/learners/count", token: adminToken})
		require.Equal(t, http.StatusOK, rec.Code)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.CountResponse{Count: 3})}, rec)
	})
}

func Test_learnerApi_query(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, schoolA, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	adminB := testutil.CreateUser(t, usrRepo, schoolB, "Admin B", "adminb", "adminb@test.cd", "", []string{user.RoleAdmin}, true)

	amani := testutil.CreateLearner(t, lrnRepo, schoolA, "A-001", "Amani", "Otieno", learner.Grade1)
	baraka := testutil.CreateLearner(t, lrnRepo, schoolA, "A-002", "Baraka", "Mwangi", learner.GradePP1)
	chausiku := testutil.CreateLearner(t, lrnRepo, schoolA, "A-003", "Chausiku", "Mwangi", learner.Grade9)
	dalia := testutil.CreateLearner(t, lrnRepo, schoolB, "B-001", "Dalia", "Kamau", learner.Grade1)

	path := func(search string, grades ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		for _, g := range grades {
			v.Add("grade", g)
		}
		return "/v1/learners?" + v.Encode()
	}
	teacherToken := getToken(t, teacher)

	runHTTPTests(t, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/learners", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", method: http.MethodGet, path: "/v1/learners", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "school A", method: http.MethodGet, path: "/v1/learners", token: teacherToken, wantData: marchallList(t, baraka, chausiku, amani)},
		{name: "school B", method: http.MethodGet, path: "/v1/learners", token: getToken(t, adminB), wantData: marchallList(t, dalia)},
		{name: "search", method: http.MethodGet, path: path("mwa"), token: teacherToken, wantData: marchallList(t, baraka, chausiku)},
		{name: "search by admission number", method: http.MethodGet, path: path("a-003"), token: teacherToken, wantData: marchallList(t, chausiku)},
		{name: "search in other school", method: http.MethodGet, path: path("kamau"), token: teacherToken, wantData: marchallList(t)},
		{name: "grades", method: http.MethodGet, path: path("", "grade_1", learner.Grade9), token: teacherToken, wantData: marchallList(t, chausiku, amani)},
		{name: "ordering", method: http.MethodGet, path: "/v1/learners?ordering=-admission_number", token: teacherToken, wantData: marchallList(t, chausiku, baraka, amani)},
		{name: "count", method: http.MethodGet, path: "/v1/learners/count?grade=GRADE_1", token: teacherToken, wantData: marchallObj(t, echoapi.CountResponse{Count: 1})},
		{name: "get", method: http.MethodGet, path: "/v1/learners/" + amani.ID, token: teacherToken, wantData: marchallObj(t, amani)},
		{name: "get other school's", method: http.MethodGet, path: "/v1/learners/" + dalia.ID, token: getToken(t, admin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})
}

func Test_learnerApi_updateAndDelete(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, schoolA, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, schoolA, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	amani := testutil.CreateLearner(t, lrnRepo, schoolA, "A-001", "Amani", "Otieno", learner.Grade1)
	testutil.CreateLearner(t, lrnRepo, schoolA, "A-002", "Baraka", "Mwangi", learner.Grade1)
	dalia := testutil.CreateLearner(t, lrnRepo, schoolB, "B-001", "Dalia", "Kamau", learner.Grade1)
	adminToken := getToken(t, admin)

	runHTTPTests(t, []httpTest{
		{
			name: "teachers cannot update", method: http.MethodPut, path: "/v1/learners/" + amani.ID, token: getToken(t, teacher),
			body: marchallObj(t, learner.UpdateLearner{Grade: learner.Grade2}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admission number taken", method: http.MethodPut, path: "/v1/learners/" + amani.ID, token: adminToken,
			body: marchallObj(t, learner.UpdateLearner{AdmissionNumber: "A-002"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "other school's", method: http.MethodPut, path: "/v1/learners/" + dalia.ID, token: adminToken,
			body: marchallObj(t, learner.UpdateLearner{Grade: learner.Grade2}), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "delete other school's", method: http.MethodDelete, path: "/v1/learners/" + dalia.ID, token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	t.Run("update", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/v1/learners/" + amani.ID, token: adminToken,
			body: marchallObj(t, learner.UpdateLearner{Grade: learner.Grade2, Status: "transferred"}),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var lrn learner.Learner
		unmarshal(t, rec, &lrn)
		assert.Equal(t, learner.Grade2, lrn.Grade)
		assert.Equal(t, learner.StatusTransferred, lrn.Status)
		assert.Equal(t, amani.AdmissionNumber, lrn.AdmissionNumber)
		assert.Equal(t, schoolA, lrn.SchoolID)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodDelete, path: "/v1/learners/" + amani.ID, token: adminToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(httpTest{method: http.MethodGet, path: "/v1/learners/" + amani.ID, token: adminToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
