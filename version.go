package hairball

// FormatVersion is the semantic version a Builder stamps into every
// file it writes. Readers accept any file whose major component
// matches theirs; minor and patch differences are accepted read-only.
var FormatVersion = struct {
	Major, Minor, Patch uint32
}{Major: 1, Minor: 0, Patch: 0}
