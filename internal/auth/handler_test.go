package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/auth"
	"github.com/frahmantamala/appraisal-portal/internal/navigation"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/transport/web"
	"github.com/frahmantamala/appraisal-portal/internal/view"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("Handler", func() {
	var (
		backend *fakeBackend
		handler *auth.Handler
		store   *session.Store
	)

	withStore := func(req *http.Request) *http.Request {
		return req.WithContext(session.ContextWithStore(req.Context(), store))
	}

	postForm := func(path string, form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return withStore(req)
	}

	BeforeEach(func() {
		backend = newFakeBackend()
		backend.answerJSON("pat", `{"token":"t-1","name":"Pat","role":"PROJECT_MANAGER"}`)

		notices := view.NewNotices()
		renderer, err := web.NewRenderer(navigation.Default(), notices, logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		base := transport.NewBaseHandler(logger.Discard(), renderer, notices)
		handler = auth.NewHandler(base, auth.NewService(backend.client(), logger.Discard()))
		store = session.NewStore(session.NewMemoryStorage(), "scope-1")
	})

	AfterEach(func() {
		backend.server.Close()
	})

	It("renders the login form with the return path", func() {
		w := httptest.NewRecorder()

		handler.ShowLogin(w, withStore(httptest.NewRequest(http.MethodGet, "/login?next=%2Fpm", nil)))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`name="next" value="/pm"`))
	})

	It("sends a signed in user away from the login form", func() {
		Expect(store.Login(context.Background(), "t", session.NewUser("Pat"))).To(Succeed())
		w := httptest.NewRecorder()

		handler.ShowLogin(w, withStore(httptest.NewRequest(http.MethodGet, "/login", nil)))

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/"))
	})

	It("signs in and returns to the requested page", func() {
		w := httptest.NewRecorder()

		handler.Login(w, postForm("/login", url.Values{"username": {"pat"}, "password": {"secret"}, "next": {"/pm"}}))

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/pm"))
		Expect(store.Authenticated()).To(BeTrue())
	})

	It("never redirects off site after signing in", func() {
		w := httptest.NewRecorder()

		handler.Login(w, postForm("/login", url.Values{"username": {"pat"}, "password": {"secret"}, "next": {"//evil.example"}}))

		Expect(w.Header().Get("Location")).To(Equal("/"))
	})

	It("shows the rejection on the form", func() {
		w := httptest.NewRecorder()

		handler.Login(w, postForm("/login", url.Values{"username": {"mallory"}, "password": {"guess"}}))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("Bad credentials"))
		Expect(w.Body.String()).To(ContainSubstring(`value="mallory"`))
		Expect(store.Authenticated()).To(BeFalse())
	})

	It("signs out and returns to the login form", func() {
		handler.Login(httptest.NewRecorder(), postForm("/login", url.Values{"username": {"pat"}, "password": {"secret"}}))
		w := httptest.NewRecorder()

		handler.Logout(w, postForm("/logout", url.Values{}))

		Expect(w.Code).To(Equal(http.StatusSeeOther))
		Expect(w.Header().Get("Location")).To(Equal("/login"))
		Expect(store.Authenticated()).To(BeFalse())
	})
})
