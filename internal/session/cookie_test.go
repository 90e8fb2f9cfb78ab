package session_test

import (
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal/session"
)

var _ = Describe("CookieCodec", func() {
	const secret = "0123456789abcdef0123456789abcdef"

	var codec *session.CookieCodec

	BeforeEach(func() {
		codec = session.NewCookieCodec("portal_session", secret, time.Hour, true)
	})

	It("round-trips a scope", func() {
		scope := session.NewScope()

		value, err := codec.Encode(scope)
		Expect(err).NotTo(HaveOccurred())

		decoded, err := codec.Decode(value)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(scope))
	})

	It("rejects a value signed with another secret", func() {
		other := session.NewCookieCodec("portal_session", "another-secret-another-secret-xx", time.Hour, true)
		value, err := other.Encode(session.NewScope())
		Expect(err).NotTo(HaveOccurred())

		_, err = codec.Decode(value)
		Expect(err).To(MatchError(session.ErrInvalidCookie))
	})

	It("rejects an expired value", func() {
		issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		session.SetCookieClock(codec, func() time.Time { return issued })
		value, err := codec.Encode(session.NewScope())
		Expect(err).NotTo(HaveOccurred())

		session.SetCookieClock(codec, func() time.Time { return issued.Add(2 * time.Hour) })

		_, err = codec.Decode(value)
		Expect(err).To(MatchError(session.ErrInvalidCookie))
	})

	It("rejects a subject that is not a scope id", func() {
		value, err := codec.Encode("../../etc/passwd")
		Expect(err).NotTo(HaveOccurred())

		_, err = codec.Decode(value)
		Expect(err).To(MatchError(session.ErrInvalidCookie))
	})

	It("builds an http-only cookie and reads it back from a request", func() {
		scope := session.NewScope()
		ck, err := codec.Cookie(scope)
		Expect(err).NotTo(HaveOccurred())
		Expect(ck.HttpOnly).To(BeTrue())
		Expect(ck.Secure).To(BeTrue())
		Expect(ck.Path).To(Equal("/"))
		Expect(ck.MaxAge).To(Equal(3600))

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(ck)

		got, ok := codec.FromRequest(req)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(scope))
	})

	It("reports no scope for a request without the cookie", func() {
		_, ok := codec.FromRequest(httptest.NewRequest("GET", "/", nil))
		Expect(ok).To(BeFalse())
	})
})
