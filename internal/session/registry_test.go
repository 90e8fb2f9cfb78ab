package session_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/view"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("Registry", func() {
	var registry *session.Registry

	BeforeEach(func() {
		registry = session.NewRegistry(session.NewMemoryStorage(), nil, nil)
	})

	It("returns the same store for a scope", func() {
		a := registry.Get("a")
		Expect(registry.Get("a")).To(BeIdenticalTo(a))
		Expect(registry.Get("b")).NotTo(BeIdenticalTo(a))
		Expect(registry.Len()).To(Equal(2))
	})

	It("keeps scopes apart", func() {
		ctx := context.Background()
		a, b := registry.Get("a"), registry.Get("b")
		a.Initialize(ctx)
		b.Initialize(ctx)

		Expect(a.Login(ctx, "tok", session.NewUser("Ana"))).To(Succeed())

		Expect(a.Authenticated()).To(BeTrue())
		Expect(b.Authenticated()).To(BeFalse())
	})

	It("reloads a forgotten scope from storage", func() {
		ctx := context.Background()
		a := registry.Get("a")
		a.Initialize(ctx)
		Expect(a.Login(ctx, "tok", session.NewUser("Ana"))).To(Succeed())

		registry.ForgetScope("a")
		again := registry.Get("a")
		Expect(again).NotTo(BeIdenticalTo(a))

		again.Initialize(ctx)
		Expect(again.Authenticated()).To(BeTrue())
	})

	It("keeps anonymous stores that were seen recently", func() {
		now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		session.SetRegistryClock(registry, func() time.Time { return now })
		registry.Get("a")

		Expect(registry.PruneAnonymous(now.Add(-time.Minute))).To(BeEmpty())
		Expect(registry.PruneAnonymous(now.Add(time.Minute))).To(Equal([]string{"a"}))
		Expect(registry.Len()).To(BeZero())
	})

	It("forgets a scope once it logs out", func() {
		ctx := context.Background()
		bus := events.NewEventBus(logger.Discard())
		registry = session.NewRegistry(session.NewMemoryStorage(), bus, nil)
		view.ForgetOnSessionEnd(bus, registry)

		a := registry.Get("a")
		a.Initialize(ctx)
		Expect(a.Login(ctx, "tok", session.NewUser("Ana"))).To(Succeed())
		Expect(registry.Len()).To(Equal(1))

		Expect(a.Logout(ctx)).To(Succeed())

		Expect(registry.Len()).To(BeZero())
	})

	It("carries a store through a context", func() {
		s := registry.Get("a")
		ctx := session.ContextWithStore(context.Background(), s)

		got, ok := session.FromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(s))

		_, ok = session.FromContext(context.Background())
		Expect(ok).To(BeFalse())
	})
})
