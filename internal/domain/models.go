// Package domain defines the core business entities for Cenit.
// These models are independent of the persistence backend and represent
// the canonical data structures used throughout the application.
package domain

// ============================================================
// Transaction types
// ============================================================

// TransactionType distinguishes income from expense records.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ============================================================
// Session
// ============================================================

// Session is the authenticated user identity. Exactly one instance
// exists per workspace; the zero value means "not authenticated".
type Session struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

// AuthUser is the user record returned by the auth backend.
type AuthUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	LastSignInAt     string `json:"last_sign_in_at,omitempty"`
}

// AuthSession is a token pair issued by the auth backend.
type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	TokenType    string   `json:"token_type"`
	User         AuthUser `json:"user"`
}

// AuthEventType enumerates out-of-band session change notifications.
type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "SIGNED_IN"
	AuthSignedOut      AuthEventType = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is delivered to session subscribers when the auth state changes.
type AuthEvent struct {
	Type    AuthEventType
	Session *AuthSession
}

// ============================================================
// Profile
// ============================================================

// Profile is the user's application profile, one-to-one with the session.
// The id column equals the auth user id.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// ============================================================
// Category
// ============================================================

// Category groups transactions of one type. Position defines the user's
// manual ordering and must remain a dense permutation of 1..N after any
// reorder commit.
type Category struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	Position  int             `json:"position"`
	CreatedAt string          `json:"created_at"`
}

// ============================================================
// Transaction
// ============================================================

// Transaction is a single income or expense record.
//
// TransactionDate is a calendar date kept as a YYYY-MM-DD string and
// CreatedAt as the server timestamp string: both compare correctly with
// plain string comparison, which avoids timezone-sensitive time.Parse
// round trips shifting records across day boundaries.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	CategoryID      *string         `json:"category_id"`
	Type            TransactionType `json:"type"`
	Amount          float64         `json:"amount"`
	Name            string          `json:"name"`
	TransactionDate string          `json:"transaction_date"`
	CreatedAt       string          `json:"created_at"`
}

// Uncategorized reports whether the transaction has no assigned category.
func (t Transaction) Uncategorized() bool {
	return t.CategoryID == nil || *t.CategoryID == ""
}

// ============================================================
// Inputs
// ============================================================

// TransactionInput is the user-supplied payload for creating or
// updating a transaction.
type TransactionInput struct {
	CategoryID      string          `json:"category_id"`
	Type            TransactionType `json:"type"`
	Amount          float64         `json:"amount"`
	Name            string          `json:"name"`
	TransactionDate string          `json:"transaction_date"`
}

// CategoryInput is the user-supplied payload for creating or updating
// a category.
type CategoryInput struct {
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// ProfileInput is the user-supplied payload for updating the profile.
type ProfileInput struct {
	Username string `json:"username"`
}

// TransactionFilters narrows a transaction fetch.
type TransactionFilters struct {
	Type      TransactionType
	StartDate string
	EndDate   string
}

// ============================================================
// Totals — pure helpers over transaction snapshots
// ============================================================

// Total sums transaction amounts, optionally restricted to one type.
func Total(txs []Transaction, t TransactionType) float64 {
	var sum float64
	for _, tx := range txs {
		if t == "" || tx.Type == t {
			sum += tx.Amount
		}
	}
	return sum
}

// TotalIncome sums income amounts.
func TotalIncome(txs []Transaction) float64 { return Total(txs, TypeIncome) }

// TotalExpenses sums expense amounts.
func TotalExpenses(txs []Transaction) float64 { return Total(txs, TypeExpense) }

// Balance is income minus expenses.
func Balance(txs []Transaction) float64 {
	return TotalIncome(txs) - TotalExpenses(txs)
}
