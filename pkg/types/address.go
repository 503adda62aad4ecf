package types

import "strings"

// Address is stored as a list of printable lines, ready for invoices and
// shipping labels.
type Address []string

// ChannelAddress mirrors the address block a channel webhook delivers.
type ChannelAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

const addressLineWidth = 20

// FormatAddress flattens a channel address into display lines, wrapping the
// street address at word boundaries.
func FormatAddress(a ChannelAddress) Address {
	if strings.TrimSpace(a.Address1) == "" {
		return Address{}
	}

	street := strings.TrimSpace(a.Address1 + " " + a.Address2)

	var lines []string
	remaining := street
	for len(remaining) > addressLineWidth {
		split := strings.LastIndex(remaining[:addressLineWidth], " ")
		if split == -1 {
			lines = append(lines, remaining[:addressLineWidth])
			remaining = remaining[addressLineWidth:]
			continue
		}
		lines = append(lines, remaining[:split])
		remaining = remaining[split+1:]
	}

	out := Address{strings.TrimSpace(a.FirstName + " " + a.LastName)}
	out = append(out, lines...)
	out = append(out, remaining, a.City, a.Province+" - "+a.Zip, a.Country, a.Phone, a.Email)
	return out
}
