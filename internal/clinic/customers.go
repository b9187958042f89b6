package clinic

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Customer is one active clinic patient.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	DOB       string
	Sex       string
	Email     string
	Phone     string
	Groups    []string
}

// Label renders the display name used across the board.
func (c Customer) Label() string {
	id := strconv.FormatInt(c.ID, 10)
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return "ID " + id
	}
	return name + " (ID " + id + ")"
}

// normGroup lowercases and trims a group name so filters match regardless of
// how the clinic capitalizes them.
func normGroup(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// parseGroups reads the group membership of one customer record. The clinic
// answers with a list of strings, a list of objects, a single object, or a
// bare string depending on tenant configuration.
func parseGroups(item gjson.Result) []string {
	src := item.Get("groups")
	if !src.Exists() {
		src = item.Get("group")
	}

	var names []string
	appendName := func(name string) {
		if normed := normGroup(name); normed != "" {
			names = append(names, normed)
		}
	}

	switch {
	case src.IsArray():
		src.ForEach(func(_, entry gjson.Result) bool {
			if entry.IsObject() {
				appendName(entry.Get("name").String())
			} else {
				appendName(entry.String())
			}
			return true
		})
	case src.IsObject():
		appendName(src.Get("name").String())
	case src.Type == gjson.String:
		appendName(src.String())
	}
	return names
}

func parseCustomer(item gjson.Result) Customer {
	customer := Customer{
		ID:        item.Get("id").Int(),
		FirstName: item.Get("first_name").String(),
		LastName:  item.Get("last_name").String(),
		DOB:       item.Get("dob").String(),
		Sex:       item.Get("sex").String(),
		Email:     item.Get("email").String(),
		Phone:     item.Get("phone").String(),
		Groups:    parseGroups(item),
	}
	if customer.DOB == "" {
		customer.DOB = item.Get("birthdate").String()
	}
	if customer.Sex == "" {
		customer.Sex = item.Get("gender").String()
	}
	if customer.Phone == "" {
		customer.Phone = item.Get("mobile").String()
	}
	return customer
}

// Customers lists every active customer with group membership attached.
// Records without an id are dropped.
func (c *Client) Customers(ctx context.Context) ([]Customer, error) {
	rows, err := c.pagedList(ctx, "customers/list", url.Values{
		"include": {"groups"},
		"status":  {"ACTIVE"},
	})
	if err != nil {
		return nil, err
	}

	customers := make([]Customer, 0, len(rows))
	for _, row := range rows {
		customer := parseCustomer(row)
		if customer.ID == 0 {
			continue
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// GroupNames returns the sorted union of group names across customers.
func GroupNames(customers []Customer) []string {
	seen := map[string]bool{}
	for _, customer := range customers {
		for _, group := range customer.Groups {
			seen[group] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InGroups reports whether the customer belongs to at least one of the
// requested groups. Group names are matched case-insensitively.
func (c Customer) InGroups(groups []string) bool {
	for _, want := range groups {
		normed := normGroup(want)
		for _, have := range c.Groups {
			if have == normed {
				return true
			}
		}
	}
	return false
}
