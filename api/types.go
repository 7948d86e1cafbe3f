package api

// Credentials is the payload for the authentication endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is the backend's answer to a successful authentication:
// the principal, the session expiry in ISO-8601 form, and an optional
// bearer token issued alongside the session cookie.
type AuthResult struct {
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
	Token     string `json:"token,omitempty"`
}

// Registration is the sign-up form for a new trading account. Field names
// mirror the backend's registration payload: company identity plus a primary
// and a technical contact.
type Registration struct {
	Username                  string `json:"username"`
	Password                  string `json:"password"`
	LegalBusinessName         string `json:"legalBusinessName"`
	Name                      string `json:"name"`
	CountryOfIncorporation    string `json:"countryOfIncorporation"`
	TaxID                     string `json:"taxId"`
	CompanyRegistrationNumber string `json:"companyRegistrationNumber"`
	PrimaryContactName        string `json:"primaryContactName"`
	PrimaryContactEmail       string `json:"primaryContactEmail"`
	PrimaryContactPhone       string `json:"primaryContactPhone"`
	TechnicalContactName      string `json:"technicalContactName"`
	TechnicalContactEmail     string `json:"technicalContactEmail"`
	TechnicalContactPhone     string `json:"technicalContactPhone"`
	CompanyDescription        string `json:"companyDescription"`
}

// Account is the full profile object served by /api/profile. The role and
// permission set embedded here also drive the session manager's Profile.
type Account struct {
	Username       string   `json:"username"`
	ContactEmail   string   `json:"contactEmail"`
	CompanyName    string   `json:"companyName"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
}

// Contract is a data-contract listing.
type Contract struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	DeliveryDate    string  `json:"deliveryDate"`
	DataDescription string  `json:"dataDescription"`
	AgreementText   string  `json:"agreementText,omitempty"`
	TermsFileName   string  `json:"termsFileName,omitempty"`
	Seller          string  `json:"seller,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// contractPage is the pagination envelope around the history and sold
// listings.
type contractPage struct {
	Content []Contract `json:"content"`
}

// NewContract is the listing submission payload.
type NewContract struct {
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	DeliveryDate    string  `json:"deliveryDate"`
	DataDescription string  `json:"dataDescription"`
	AgreementText   string  `json:"agreementText"`
	TermsFileName   string  `json:"termsFileName,omitempty"`
}

// Purchase is the optional payload accompanying a buy: a captured signature
// for listings whose agreement requires one.
type Purchase struct {
	Signature string `json:"signature,omitempty"`
}

// Notification is one entry in the account's notification feed. Bid
// notifications carry the contract and bid identifiers needed to accept or
// reject the bid; both are empty otherwise.
type Notification struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	ReadFlag   bool   `json:"readFlag"`
	CreatedAt  string `json:"createdAt"`
	ContractID string `json:"contractId,omitempty"`
	BidID      string `json:"bidId,omitempty"`
}

// IsBid reports whether the notification is an actionable bid offer.
func (n Notification) IsBid() bool {
	return n.ContractID != "" && n.BidID != ""
}

// SavedSearch is a pinned contract filter. Unset bounds are omitted so the
// backend stores them as null.
type SavedSearch struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	SearchTerm string   `json:"searchTerm,omitempty"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
	Seller     string   `json:"seller,omitempty"`
}

// User is an account row in the admin access view.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
