package breaking

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	apierrors "apidump/internal/errors"
)

// NextVersion applies advice ("major", "minor" or "patch") to current. The
// leading v is optional. Below v1 a breaking change bumps the minor
// version, and a prerelease resolves to its own release.
func NextVersion(current, advice string) (string, error) {
	v := current
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", apierrors.Newf(apierrors.InputInvalid, "%q is not a semantic version", current)
	}
	canonical := semver.Canonical(v)
	if pre := semver.Prerelease(canonical); pre != "" {
		return strings.TrimSuffix(canonical, pre), nil
	}

	parts := strings.Split(strings.TrimPrefix(canonical, "v"), ".")
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", apierrors.New(apierrors.InputInvalid, fmt.Sprintf("%q is not a semantic version", current), err)
		}
		nums[i] = n
	}
	major, minor, patch := nums[0], nums[1], nums[2]

	switch advice {
	case "major":
		if major == 0 {
			return fmt.Sprintf("v0.%d.0", minor+1), nil
		}
		return fmt.Sprintf("v%d.0.0", major+1), nil
	case "minor":
		return fmt.Sprintf("v%d.%d.0", major, minor+1), nil
	case "patch":
		return fmt.Sprintf("v%d.%d.%d", major, minor, patch+1), nil
	}
	return "", apierrors.Newf(apierrors.InputInvalid, "unknown version advice %q", advice)
}

// WithNextVersion fills NextVersion from current.
func (r *CompareResult) WithNextVersion(current string) error {
	next, err := NextVersion(current, r.SemverAdvice)
	if err != nil {
		return err
	}
	r.NextVersion = next
	return nil
}
