package hr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/hr"
	"github.com/frahmantamala/appraisal-portal/internal/navigation"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/transport/web"
	"github.com/frahmantamala/appraisal-portal/internal/view"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("Handler", func() {
	var (
		api     *fakeAPI
		notices *view.Notices
		store   *session.Store
		router  chi.Router
	)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		req = req.WithContext(session.ContextWithStore(req.Context(), store))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	post := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(req)
	}

	BeforeEach(func() {
		api = &fakeAPI{
			employees: []appraisal.Person{{ID: 1, Name: "Ana", Username: "ana"}},
			managers:  []appraisal.Person{{ID: 4, Name: "Pat"}},
			cycles:    []appraisal.Cycle{{ID: 10, Employee: appraisal.Person{Name: "Ana"}, Status: appraisal.StatusOpen, Year: "2025"}},
		}
		notices = view.NewNotices()
		renderer, err := web.NewRenderer(navigation.Default(), notices, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
		handler := hr.NewHandler(transport.NewBaseHandler(logger.Discard(), renderer, notices), hr.NewService(api, logger.Discard()))

		router = chi.NewRouter()
		router.Get("/hr", handler.Dashboard)
		router.Post("/hr/appraisals", handler.Initiate)
		router.Post("/hr/appraisals/{id}/assign-pm", handler.AssignPM)

		store = session.NewStore(session.NewMemoryStorage(), "s1")
		Expect(store.Login(context.Background(), "tok", session.NewUser("Hana", role.HR, role.Employee))).To(Succeed())
	})

	It("renders the console", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/hr", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		body := w.Body.String()
		Expect(body).To(ContainSubstring("Ana (ana)"))
		Expect(body).To(ContainSubstring(`action="/hr/appraisals/10/assign-pm"`))
		Expect(body).To(ContainSubstring("HR Console"))
		Expect(body).NotTo(ContainSubstring("Manager Dashboard"))
	})

	It("flashes success after initiating", func() {
		w := post("/hr/appraisals", url.Values{"employeeId": {"1"}, "year": {"2025"}})

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/hr"))
		Expect(notices.Take("s1")).To(ConsistOf(view.Success("Appraisal Initiated", "The appraisal cycle has been created successfully.")))
	})

	It("flashes the server's message when initiating fails", func() {
		api.writeErr = &apiclient.APIError{StatusCode: 400, Message: "Appraisal already exists for this year"}

		post("/hr/appraisals", url.Values{"employeeId": {"1"}, "year": {"2025"}})

		Expect(notices.Take("s1")).To(ConsistOf(view.Failure("Failed to Initiate", "Appraisal already exists for this year")))
	})

	It("assigns a reviewer", func() {
		w := post("/hr/appraisals/10/assign-pm", url.Values{"pmId": {"4"}})

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(api.assigned).To(ConsistOf([2]int64{10, 4}))
	})

	It("signs the browser out when the backend rejects its token", func() {
		api.writeErr = &apiclient.APIError{StatusCode: http.StatusUnauthorized}

		w := post("/hr/appraisals/10/assign-pm", url.Values{"pmId": {"4"}})

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(HavePrefix("/login"))
		Expect(store.Authenticated()).To(BeFalse())
	})
})
