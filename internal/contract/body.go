package contract

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// CheckOp is the comparison a BodyCheck performs.
type CheckOp string

const (
	OpEquals    CheckOp = "equals"
	OpNotNull   CheckOp = "not_null"
	OpCountEq   CheckOp = "count_eq"
	OpCountGT   CheckOp = "count_gt"
	OpCountGTE  CheckOp = "count_gte"
	OpEmptyBody CheckOp = "empty_body"
	OpMissing   CheckOp = "missing"
)

// BodyCheck is an assertion on a JSON body addressed by a gjson path.
// Count operations apply to the array at Path; an empty Path means the
// top-level document.
type BodyCheck struct {
	Path string
	Op   CheckOp
	Want string
	N    int
}

// Equals asserts that the value at path renders as want.
func Equals(path, want string) BodyCheck {
	return BodyCheck{Path: path, Op: OpEquals, Want: want}
}

// NotNull asserts that path exists and is not JSON null.
func NotNull(path string) BodyCheck {
	return BodyCheck{Path: path, Op: OpNotNull}
}

func CountEquals(path string, n int) BodyCheck {
	return BodyCheck{Path: path, Op: OpCountEq, N: n}
}

func CountAbove(path string, n int) BodyCheck {
	return BodyCheck{Path: path, Op: OpCountGT, N: n}
}

func CountAtLeast(path string, n int) BodyCheck {
	return BodyCheck{Path: path, Op: OpCountGTE, N: n}
}

// Missing asserts that path does not exist.
func Missing(path string) BodyCheck {
	return BodyCheck{Path: path, Op: OpMissing}
}

// EmptyBody asserts a zero-length body, as sent with 204.
func EmptyBody() BodyCheck {
	return BodyCheck{Op: OpEmptyBody}
}

func (c BodyCheck) String() string {
	switch c.Op {
	case OpEquals:
		return fmt.Sprintf("%s == %q", c.Path, c.Want)
	case OpNotNull:
		return c.Path + " != null"
	case OpCountEq:
		return fmt.Sprintf("%s == %d", c.countPath(), c.N)
	case OpCountGT:
		return fmt.Sprintf("%s > %d", c.countPath(), c.N)
	case OpCountGTE:
		return fmt.Sprintf("%s >= %d", c.countPath(), c.N)
	case OpEmptyBody:
		return "body is empty"
	case OpMissing:
		return c.Path + " is absent"
	}
	return string(c.Op)
}

func (c BodyCheck) countPath() string {
	if c.Path == "" {
		return "#"
	}
	return c.Path + ".#"
}

// Evaluate runs the check against body. It returns an empty string when the
// check holds and a failure description otherwise.
func (c BodyCheck) Evaluate(body []byte) string {
	if c.Op == OpEmptyBody {
		if len(body) != 0 {
			return fmt.Sprintf("expected empty body, got %d bytes", len(body))
		}
		return ""
	}
	if !gjson.ValidBytes(body) {
		return fmt.Sprintf("%s: body is not valid JSON", c)
	}

	switch c.Op {
	case OpEquals:
		r := gjson.GetBytes(body, c.Path)
		if !r.Exists() {
			return fmt.Sprintf("%s: path not found", c)
		}
		if r.String() != c.Want {
			return fmt.Sprintf("%s: got %q", c, r.String())
		}
	case OpNotNull:
		r := gjson.GetBytes(body, c.Path)
		if !r.Exists() || r.Type == gjson.Null {
			return fmt.Sprintf("%s: value is null or missing", c)
		}
	case OpMissing:
		if gjson.GetBytes(body, c.Path).Exists() {
			return fmt.Sprintf("%s: path is present", c)
		}
	case OpCountEq, OpCountGT, OpCountGTE:
		r := gjson.GetBytes(body, c.countPath())
		if !r.Exists() {
			return fmt.Sprintf("%s: no array at path", c)
		}
		n := int(r.Int())
		ok := (c.Op == OpCountEq && n == c.N) ||
			(c.Op == OpCountGT && n > c.N) ||
			(c.Op == OpCountGTE && n >= c.N)
		if !ok {
			return fmt.Sprintf("%s: got %d", c, n)
		}
	default:
		return fmt.Sprintf("unknown body check %q", c.Op)
	}
	return ""
}
