package models

import (
	"sort"
	"time"
)

type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Name                string     `json:"name"`
	ImageKey            string     `json:"image_key,omitempty"`
	Addresses           []Address  `json:"addresses"`
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (u User) HasPassword() bool { return u.PasswordHash != "" }

type Address struct {
	FullName   string    `json:"full_name"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// IndexedAddress pairs an address with its position in the stored list.
// Deletion addresses the stored position, not the display order.
type IndexedAddress struct {
	Index int `json:"index"`
	Address
}

// SortedAddresses returns the list most recently used first. Ties keep stored order.
func SortedAddresses(list []Address) []IndexedAddress {
	out := make([]IndexedAddress, len(list))
	for i, a := range list {
		out[i] = IndexedAddress{Index: i, Address: a}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out
}

// RemoveAddress returns a new list without the element at index, order preserved.
func RemoveAddress(list []Address, index int) ([]Address, bool) {
	if index < 0 || index >= len(list) {
		return list, false
	}
	out := make([]Address, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out, true
}
