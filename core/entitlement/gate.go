package entitlement

// Decision is the outcome of a gating check preceding a protected action.
type Decision int

const (
	// Allow 放行
	Allow Decision = iota
	// SignInRequired 未登录，前端应弹出登录框
	SignInRequired
	// SubscribeRequired 已登录但无订阅，前端应弹出订阅框
	SubscribeRequired
)

// String returns the wire name of the decision.
func (d Decision) String() string {
	switch d {
	case SignInRequired:
		return "sign_in"
	case SubscribeRequired:
		return "subscribe"
	default:
		return "allow"
	}
}

// Check evaluates the gate for a subscription-protected action.
// 每次调用都重新判定，不做缓存。
func Check(ent *Entitlement) Decision {
	if !ent.HasUser() {
		return SignInRequired
	}
	if !ent.IsSubscribed() {
		return SubscribeRequired
	}
	return Allow
}

// CheckAuthOnly evaluates the gate for actions that need a signed-in user
// but no subscription, such as liking a song.
func CheckAuthOnly(ent *Entitlement) Decision {
	if !ent.HasUser() {
		return SignInRequired
	}
	return Allow
}
