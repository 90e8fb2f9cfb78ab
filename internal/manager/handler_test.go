package manager_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/manager"
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
		api = newFakeAPI()
		notices = view.NewNotices()
		renderer, err := web.NewRenderer(navigation.Default(), notices, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
		handler := manager.NewHandler(transport.NewBaseHandler(logger.Discard(), renderer, notices), manager.NewService(api, logger.Discard()))

		router = chi.NewRouter()
		router.Get("/pm", handler.Dashboard)
		router.Get("/pm/reviews/{id}", handler.Review)
		router.Post("/pm/reviews/{id}", handler.Step)
		router.Get("/pm/reviews/{id}/clarifications", handler.Clarifications)

		store = session.NewStore(session.NewMemoryStorage(), "s1")
		Expect(store.Login(context.Background(), "tok", session.NewUser("Pat", role.ProjectManager, role.Employee))).To(Succeed())
	})

	It("lists pending reviews", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/pm", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`href="/pm/reviews/3"`))
	})

	It("walks a review to submission", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/pm/reviews/3", nil))
		Expect(w.Body.String()).To(ContainSubstring("Question 1 of 2"))

		w = post("/pm/reviews/3", url.Values{"action": {"next"}, "questionId": {"11"}, "rating": {"9"}, "comment": {"great"}})
		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/pm/reviews/3"))

		w = serve(httptest.NewRequest(http.MethodGet, "/pm/reviews/3", nil))
		Expect(w.Body.String()).To(ContainSubstring("Question 2 of 2"))
		Expect(w.Body.String()).To(ContainSubstring(`value="submit"`))

		w = post("/pm/reviews/3", url.Values{"action": {"submit"}, "questionId": {"12"}, "rating": {"6"}})
		Expect(w.Header().Get("Location")).To(Equal("/pm"))
		Expect(api.submissions[3]).To(HaveLen(2))
		Expect(notices.Take("s1")).To(ContainElement(view.Success("Review Submitted", "Your feedback has been recorded successfully.")))
	})

	It("flashes a bad rating and stays on the step", func() {
		w := post("/pm/reviews/3", url.Values{"action": {"next"}, "questionId": {"11"}, "rating": {"abc"}})

		Expect(w.Header().Get("Location")).To(Equal("/pm/reviews/3"))
		Expect(notices.Take("s1")).To(ConsistOf(view.Failure("Invalid answer", "rating must be a number")))
	})

	It("renders employee replies as markdown", func() {
		reply := "**noted**"
		api.clarifications = []appraisal.Feedback{{PMRatingID: 1, QuestionText: "Q", Rating: 6, Comment: "ok", ExistingClarification: &reply}}

		w := serve(httptest.NewRequest(http.MethodGet, "/pm/reviews/3/clarifications", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("<strong>noted</strong>"))
	})

	It("answers an unknown review id with not found", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/pm/reviews/abc", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
