package session

import "time"

func SetMemoryClock(m *MemoryStorage, now func() time.Time) { m.now = now }

func SetJanitorClock(j *Janitor, now func() time.Time) { j.now = now }

func SetRegistryClock(r *Registry, now func() time.Time) { r.now = now }

func SetCookieClock(c *CookieCodec, now func() time.Time) { c.now = now }
