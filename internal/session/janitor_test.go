package session_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

var _ = Describe("Janitor", func() {
	var (
		ctx      context.Context
		storage  *session.MemoryStorage
		registry *session.Registry
		rec      *recorder
		janitor  *session.Janitor
		start    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		storage = session.NewMemoryStorage()
		rec = &recorder{}
		registry = session.NewRegistry(storage, nil, nil)
		janitor = session.NewJanitor(storage, registry, rec, time.Hour, nil)
	})

	It("sweeps only scopes idle past the ttl", func() {
		// Given one scope written long ago and one written just now
		session.SetMemoryClock(storage, func() time.Time { return start })
		Expect(storage.Save(ctx, "stale", session.Entries{session.KeyToken: "t"})).To(Succeed())
		session.SetMemoryClock(storage, func() time.Time { return start.Add(90 * time.Minute) })
		Expect(storage.Save(ctx, "fresh", session.Entries{session.KeyToken: "t"})).To(Succeed())
		registry.Get("stale")

		// When the janitor runs two hours after the first write
		session.SetJanitorClock(janitor, func() time.Time { return start.Add(2 * time.Hour) })
		swept, err := janitor.Sweep(ctx)

		// Then only the stale scope is gone
		Expect(err).NotTo(HaveOccurred())
		Expect(swept).To(Equal([]string{"stale"}))
		Expect(registry.Len()).To(Equal(0))

		entries, _ := storage.Load(ctx, "fresh")
		Expect(entries).NotTo(BeEmpty())
		Expect(rec.types()).To(Equal([]string{events.EventTypeSessionExpired}))
		Expect(rec.events[0].Scope).To(Equal("stale"))
	})

	It("does nothing when every scope is fresh", func() {
		session.SetMemoryClock(storage, func() time.Time { return start })
		Expect(storage.Save(ctx, "fresh", session.Entries{session.KeyToken: "t"})).To(Succeed())
		session.SetJanitorClock(janitor, func() time.Time { return start.Add(time.Minute) })

		swept, err := janitor.Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(swept).To(BeEmpty())
		Expect(rec.types()).To(BeEmpty())
	})

	It("keeps an active user signed in past the ttl since login", func() {
		session.SetMemoryClock(storage, func() time.Time { return start })
		active := registry.Get("active")
		active.Initialize(ctx)
		Expect(active.Login(ctx, "tok", session.NewUser("Ana"))).To(Succeed())

		session.SetMemoryClock(storage, func() time.Time { return start.Add(90 * time.Minute) })
		active.Touch(ctx)

		session.SetJanitorClock(janitor, func() time.Time { return start.Add(2 * time.Hour) })
		swept, err := janitor.Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(swept).To(BeEmpty())
		Expect(active.Authenticated()).To(BeTrue())
	})

	It("drops anonymous stores not seen for the ttl", func() {
		session.SetRegistryClock(registry, func() time.Time { return start })
		registry.Get("visitor-a")
		registry.Get("visitor-b")
		member := registry.Get("member")
		member.Initialize(ctx)
		session.SetMemoryClock(storage, func() time.Time { return start.Add(90 * time.Minute) })
		Expect(member.Login(ctx, "tok", session.NewUser("Ana"))).To(Succeed())

		session.SetRegistryClock(registry, func() time.Time { return start.Add(90 * time.Minute) })
		registry.Get("visitor-c")

		session.SetJanitorClock(janitor, func() time.Time { return start.Add(2 * time.Hour) })
		swept, err := janitor.Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(swept).To(Equal([]string{"visitor-a", "visitor-b"}))
		Expect(registry.Len()).To(Equal(2))
		Expect(registry.Get("member")).To(BeIdenticalTo(member))
		Expect(rec.types()).To(Equal([]string{events.EventTypeSessionExpired, events.EventTypeSessionExpired}))
	})

	It("refuses an invalid schedule", func() {
		Expect(janitor.Start("every now and then")).To(HaveOccurred())
		janitor.Stop()
	})

	It("starts and stops on a valid schedule", func() {
		Expect(janitor.Start("@every 1h")).To(Succeed())
		janitor.Stop()
	})
})
