package auth_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/auth"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("LoginResponse", func() {
	It("widens a single role and implies the employee role", func() {
		user := auth.LoginResponse{Token: "t", Name: "Pat", Role: "PROJECT_MANAGER"}.User("pat")

		Expect(user.Name).To(Equal("Pat"))
		Expect(user.Roles.Has(role.ProjectManager)).To(BeTrue())
		Expect(user.Roles.Has(role.Employee)).To(BeTrue())
		Expect(user.Roles.Len()).To(Equal(2))
	})

	It("merges a role list with the single role", func() {
		user := auth.LoginResponse{Role: "boss", Roles: []string{"HR"}}.User("kim")

		Expect(user.Roles.Strings()).To(ConsistOf("BOSS", "HR", "EMPLOYEE"))
		Expect(user.Name).To(Equal("kim"))
	})
})

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		svc     *auth.Service
		store   *session.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newFakeBackend()
		svc = auth.NewService(backend.client(), logger.Discard())
		store = session.NewStore(session.NewMemoryStorage(), "scope-1")
	})

	AfterEach(func() {
		backend.server.Close()
	})

	It("signs a project manager in", func() {
		backend.answerJSON("pat", `{"token":"t-1","name":"Pat","role":"PROJECT_MANAGER","message":"Login successful"}`)

		user, err := svc.Login(ctx, store, auth.LoginDTO{Username: "pat", Password: "secret"})

		Expect(err).NotTo(HaveOccurred())
		Expect(user.Name).To(Equal("Pat"))
		Expect(store.Authenticated()).To(BeTrue())
		Expect(store.Token()).To(Equal("t-1"))
		Expect(store.HasRole(role.ProjectManager)).To(BeTrue())
		Expect(store.HasRole(role.HR)).To(BeFalse())
	})

	It("reports the server's message for rejected credentials", func() {
		_, err := svc.Login(ctx, store, auth.LoginDTO{Username: "nobody", Password: "x"})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidLogin))
		Expect(appErr.Message).To(Equal("Bad credentials"))
		Expect(store.Authenticated()).To(BeFalse())
	})

	It("treats an answer without token as a failed login", func() {
		backend.answerJSON("ghost", `{"message":"Account locked"}`)

		_, err := svc.Login(ctx, store, auth.LoginDTO{Username: "ghost", Password: "x"})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidLogin))
		Expect(appErr.Message).To(Equal("Account locked"))
	})

	It("validates the form before calling the backend", func() {
		_, err := svc.Login(ctx, store, auth.LoginDTO{Username: " ", Password: ""})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		Expect(appErr.GetDetailedMessage()).To(Equal("username is required; password is required"))
		Expect(backend.calls.Load()).To(BeZero())
	})

	It("does not mistake an unreachable backend for bad credentials", func() {
		backend.server.Close()

		_, err := svc.Login(ctx, store, auth.LoginDTO{Username: "pat", Password: "secret"})

		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeBackendUnavailable))
	})

	It("logs out idempotently", func() {
		backend.answerJSON("pat", `{"token":"t-1","name":"Pat","role":"PROJECT_MANAGER"}`)
		_, err := svc.Login(ctx, store, auth.LoginDTO{Username: "pat", Password: "secret"})
		Expect(err).NotTo(HaveOccurred())

		Expect(svc.Logout(ctx, store)).To(Succeed())
		Expect(svc.Logout(ctx, store)).To(Succeed())

		Expect(store.Authenticated()).To(BeFalse())
		for _, r := range role.Known {
			Expect(store.HasRole(r)).To(BeFalse())
		}
	})
})
