package repository

import "time"

// Festival is one community celebration with its own ledger and access
// codes.
type Festival struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Year      int       `json:"year"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Admin is a committee member who records collections and expenses for
// one festival.
type Admin struct {
	ID           string    `json:"id"`
	FestivalID   string    `json:"festivalId"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VisitorPassword is a shared read-only password an admin hands out,
// labeled for the group it was given to.
type VisitorPassword struct {
	ID           string    `json:"id"`
	FestivalID   string    `json:"festivalId"`
	AdminID      string    `json:"adminId"`
	Label        string    `json:"label"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Collection is one recorded donation. Amounts are in paise.
type Collection struct {
	ID          string    `json:"id"`
	FestivalID  string    `json:"festivalId"`
	DonorName   string    `json:"donorName"`
	AmountPaise int64     `json:"amountPaise"`
	Mode        string    `json:"mode"`
	Note        string    `json:"note,omitempty"`
	CollectedBy string    `json:"collectedBy"`
	CollectedAt time.Time `json:"collectedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expense is one recorded outflow. Amounts are in paise.
type Expense struct {
	ID          string    `json:"id"`
	FestivalID  string    `json:"festivalId"`
	Description string    `json:"description"`
	AmountPaise int64     `json:"amountPaise"`
	Category    string    `json:"category"`
	Note        string    `json:"note,omitempty"`
	SpentAt     time.Time `json:"spentAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ActivityEntry is one audit record of who did what.
type ActivityEntry struct {
	ID         string    `json:"id"`
	FestivalID string    `json:"festivalId"`
	Actor      string    `json:"actor"`
	ActorRole  string    `json:"actorRole"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MediaItem is one gallery photo or video stored in object storage.
type MediaItem struct {
	ID          string    `json:"id"`
	FestivalID  string    `json:"festivalId"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Caption     string    `json:"caption,omitempty"`
	UploadedBy  string    `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
