package model

// CPE is an opaque platform identifier token attached to an OS class
// (e.g. "cpe:/o:linux:linux_kernel:2.6"). The token is carried and
// displayed verbatim, never parsed or interpreted.
type CPE string

// String returns the token verbatim.
func (c CPE) String() string {
	return string(c)
}
