package ports

// PackageScope decides whether a package is allow-listed (trusted).
type PackageScope interface {
	// Allows reports whether pkg is inside the allow-list.
	Allows(pkg string) bool
}
