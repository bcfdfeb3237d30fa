package features

// CacheMode selects which cookies are cleared when a session starts.
type CacheMode int

const (
	CacheKeep CacheMode = iota
	CacheClearSession
	CacheClearAll
)

func (m CacheMode) String() string {
	switch m {
	case CacheClearAll:
		return "clear-all"
	case CacheClearSession:
		return "clear-session"
	default:
		return "keep"
	}
}

// Options is the per-session configuration derived from the feature flags
// at open time. It is never mutated after the session starts.
type Options struct {
	ZoomControls      bool
	Hidden            bool
	HardwareBack      bool
	Cache             CacheMode
	RedirectInterface bool
}

// Resolve derives Options from flags. hardwareBack is the value carried over
// from previous opens, since that toggle outlives a single session.
//
// clearcache is consulted first; clearsessioncache is only looked at when
// clearcache is absent.
func Resolve(f *Flags, hardwareBack bool) Options {
	o := Options{
		ZoomControls: true,
		HardwareBack: hardwareBack,
	}

	if v, ok := f.Lookup(Zoom); ok {
		o.ZoomControls = v
	}
	if v, ok := f.Lookup(Hidden); ok {
		o.Hidden = v
	}
	if v, ok := f.Lookup(HardwareBack); ok {
		o.HardwareBack = v
	}
	if v, ok := f.Lookup(ClearCache); ok {
		if v {
			o.Cache = CacheClearAll
		}
	} else if v, ok := f.Lookup(ClearSessionCache); ok && v {
		o.Cache = CacheClearSession
	}
	if v, ok := f.Lookup(RedirectInterface); ok {
		o.RedirectInterface = v
	}
	return o
}
