package session_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

const scope = "7b0c2a4e-3f43-4d6b-9b1f-0a3c2f6f9d11"

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		storage *faultyStorage
		rec     *recorder
		store   *session.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		storage = newFaultyStorage()
		rec = &recorder{}
		store = session.NewStore(storage, scope, session.WithPublisher(rec))
	})

	Describe("before initialization", func() {
		It("is neither initialized nor authenticated", func() {
			Expect(store.Initialized()).To(BeFalse())
			Expect(store.Authenticated()).To(BeFalse())
			Expect(store.HasRole(role.Employee)).To(BeFalse())
			Expect(store.Token()).To(BeEmpty())
		})
	})

	Describe("Initialize", func() {
		It("settles logged out on an empty storage", func() {
			store.Initialize(ctx)

			Expect(store.Initialized()).To(BeTrue())
			Expect(store.Authenticated()).To(BeFalse())
			Expect(rec.types()).To(Equal([]string{events.EventTypeSessionInitialized}))
			Eventually(store.Done()).Should(BeClosed())
		})

		It("only reads storage once", func() {
			store.Initialize(ctx)
			Expect(store.Login(ctx, "tok", session.NewUser("Ana", role.HR))).To(Succeed())

			store.Initialize(ctx)
			Expect(store.Authenticated()).To(BeTrue())
			Expect(rec.types()).To(Equal([]string{
				events.EventTypeSessionInitialized,
				events.EventTypeSessionLoggedIn,
			}))
		})

		It("discards a half-written session", func() {
			// Given only the token was persisted
			Expect(storage.MemoryStorage.Save(ctx, scope, session.Entries{session.KeyToken: "tok"})).To(Succeed())

			// When the store loads
			store.Initialize(ctx)

			// Then nobody is logged in
			Expect(store.Initialized()).To(BeTrue())
			Expect(store.Authenticated()).To(BeFalse())
			Expect(store.HasRole(role.Employee)).To(BeFalse())
		})

		It("discards an unreadable user profile", func() {
			Expect(storage.MemoryStorage.Save(ctx, scope, session.Entries{
				session.KeyToken: "tok",
				session.KeyUser:  "{not json",
			})).To(Succeed())

			store.Initialize(ctx)

			Expect(store.Authenticated()).To(BeFalse())
		})

		It("discards a profile without a name", func() {
			Expect(storage.MemoryStorage.Save(ctx, scope, session.Entries{
				session.KeyToken: "tok",
				session.KeyUser:  `{"name":"","roles":["HR"]}`,
			})).To(Succeed())

			store.Initialize(ctx)

			Expect(store.Authenticated()).To(BeFalse())
			Expect(store.HasRole(role.HR)).To(BeFalse())
		})

		It("fails closed when storage cannot be read", func() {
			storage.loadErr = errDiskGone

			store.Initialize(ctx)

			Expect(store.Initialized()).To(BeTrue())
			Expect(store.Authenticated()).To(BeFalse())
		})

		It("runs in the background through Start", func() {
			done := store.Start(ctx)

			Eventually(done).Should(BeClosed())
			Expect(store.Initialized()).To(BeTrue())
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			store.Initialize(ctx)
		})

		It("grants exactly the given roles to a project manager", func() {
			user := session.NewUser("Pat", role.ProjectManager, role.Employee)

			Expect(store.Login(ctx, "pm-token", user)).To(Succeed())

			Expect(store.Authenticated()).To(BeTrue())
			Expect(store.Token()).To(Equal("pm-token"))
			Expect(store.HasRole(role.ProjectManager)).To(BeTrue())
			Expect(store.HasRole(role.Employee)).To(BeTrue())
			Expect(store.HasRole(role.HR)).To(BeFalse())
			Expect(store.HasRole(role.Boss)).To(BeFalse())
		})

		It("persists token and profile together", func() {
			Expect(store.Login(ctx, "tok", session.NewUser("Ana", role.HR, role.Employee))).To(Succeed())

			entries, err := storage.Load(ctx, scope)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveKeyWithValue(session.KeyToken, "tok"))

			var saved map[string]interface{}
			Expect(json.Unmarshal([]byte(entries[session.KeyUser]), &saved)).To(Succeed())
			Expect(saved).To(HaveKeyWithValue("name", "Ana"))
			Expect(saved["roles"]).To(ConsistOf("EMPLOYEE", "HR"))
		})

		It("survives a restart over the same storage", func() {
			Expect(store.Login(ctx, "tok", session.NewUser("Ana", role.HR))).To(Succeed())

			reopened := session.NewStore(storage, scope)
			reopened.Initialize(ctx)

			Expect(reopened.Authenticated()).To(BeTrue())
			Expect(reopened.Token()).To(Equal("tok"))
			user, ok := reopened.User()
			Expect(ok).To(BeTrue())
			Expect(user.Name).To(Equal("Ana"))
			Expect(user.HasRole(role.HR)).To(BeTrue())
		})

		It("answers the same role checks after a restart for a loosely spelled tag", func() {
			Expect(store.Login(ctx, "tok", session.NewUser("Ana", role.Role("Project_Manager")))).To(Succeed())
			Expect(store.HasRole(role.ProjectManager)).To(BeTrue())

			reopened := session.NewStore(storage, scope)
			reopened.Initialize(ctx)

			Expect(reopened.HasRole(role.ProjectManager)).To(BeTrue())
			Expect(reopened.HasRole(role.Role("Project_Manager"))).To(BeTrue())
			before, _ := store.User()
			after, _ := reopened.User()
			Expect(after.Roles.Strings()).To(Equal(before.Roles.Strings()))
		})

		It("does not share the caller's role set", func() {
			user := session.NewUser("Ana", role.Employee)
			Expect(store.Login(ctx, "tok", user)).To(Succeed())

			user.Roles[role.Boss] = struct{}{}

			Expect(store.HasRole(role.Boss)).To(BeFalse())
		})

		It("rejects an empty token without touching storage", func() {
			err := store.Login(ctx, "  ", session.NewUser("Ana", role.HR))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(store.Authenticated()).To(BeFalse())

			entries, _ := storage.Load(ctx, scope)
			Expect(entries).To(BeEmpty())
		})

		It("rejects a user without a name", func() {
			err := store.Login(ctx, "tok", session.NewUser("", role.HR))

			Expect(err).To(HaveOccurred())
			Expect(store.Authenticated()).To(BeFalse())
		})

		It("stays logged out when storage refuses the write", func() {
			storage.saveErr = errDiskGone

			err := store.Login(ctx, "tok", session.NewUser("Ana", role.HR))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSessionStorage))
			Expect(err).To(MatchError(ContainSubstring("disk gone")))
			Expect(store.Authenticated()).To(BeFalse())
		})

		It("wins over a late initialization", func() {
			fresh := session.NewStore(storage, "other-scope", session.WithPublisher(rec))
			Expect(fresh.Login(ctx, "tok", session.NewUser("Ana", role.Boss))).To(Succeed())

			fresh.Initialize(ctx)

			Expect(fresh.Authenticated()).To(BeTrue())
			Expect(fresh.HasRole(role.Boss)).To(BeTrue())
		})
	})

	Describe("Logout", func() {
		BeforeEach(func() {
			store.Initialize(ctx)
			Expect(store.Login(ctx, "tok", session.NewUser("Ana", role.HR))).To(Succeed())
		})

		It("clears memory and storage", func() {
			Expect(store.Logout(ctx)).To(Succeed())

			Expect(store.Authenticated()).To(BeFalse())
			Expect(store.HasRole(role.HR)).To(BeFalse())
			entries, err := storage.Load(ctx, scope)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("is idempotent", func() {
			Expect(store.Logout(ctx)).To(Succeed())
			Expect(store.Logout(ctx)).To(Succeed())

			Expect(store.Authenticated()).To(BeFalse())
			Expect(rec.types()).To(Equal([]string{
				events.EventTypeSessionInitialized,
				events.EventTypeSessionLoggedIn,
				events.EventTypeSessionLoggedOut,
			}))
		})

		It("still logs out in memory when storage fails", func() {
			storage.deleteErr = errDiskGone

			err := store.Logout(ctx)

			Expect(err).To(MatchError(ContainSubstring("disk gone")))
			Expect(store.Authenticated()).To(BeFalse())
		})

		It("settles an uninitialized store as logged out", func() {
			settled := &recorder{}
			fresh := session.NewStore(storage, "another-scope", session.WithPublisher(settled))

			Expect(fresh.Logout(ctx)).To(Succeed())
			fresh.Initialize(ctx)

			Expect(fresh.Initialized()).To(BeTrue())
			Expect(fresh.Authenticated()).To(BeFalse())
			Expect(settled.types()).To(Equal([]string{events.EventTypeSessionInitialized}))
			Expect(settled.events[0].Scope).To(Equal("another-scope"))
			Expect(settled.events[0].Authenticated).To(BeFalse())
		})
	})

	Describe("User", func() {
		It("round-trips through JSON with sorted role tags", func() {
			u := session.NewUser("Ana", role.HR, role.Employee)

			data, err := json.Marshal(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"name":"Ana","roles":["EMPLOYEE","HR"]}`))

			var back session.User
			Expect(json.Unmarshal(data, &back)).To(Succeed())
			Expect(back.Name).To(Equal("Ana"))
			Expect(back.Roles.Slice()).To(Equal(u.Roles.Slice()))
		})
	})
})
