package registry

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// profilePath lists registration profiles.
const profilePath = "/api/registration/profile/"

// profilePageSize is the chunk size used when walking all pages.
const profilePageSize = 100

// maxProfilePages caps next-link traversal against a misbehaving upstream.
const maxProfilePages = 1000

// Profile is one flattened registration profile row.
type Profile struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Sport            string
	EnrollmentStatus string
}

// ProfilePage is one page of profile rows plus continuation state.
type ProfilePage struct {
	Profiles []Profile
	Count    int
	Next     string
	Previous string
}

// flattenProfile extracts the dashboard columns from one profile record,
// tolerating null person/sport/enrollment branches.
func flattenProfile(item gjson.Result) Profile {
	return Profile{
		ID:               item.Get("id").String(),
		FirstName:        item.Get("person.first_name").String(),
		LastName:         item.Get("person.last_name").String(),
		Email:            item.Get("person.email").String(),
		Sport:            item.Get("sport.name").String(),
		EnrollmentStatus: item.Get("current_enrollment.enrollment_status").String(),
	}
}

func parseProfilePage(body []byte) ProfilePage {
	parsed := gjson.ParseBytes(body)
	page := ProfilePage{
		Count:    int(parsed.Get("count").Int()),
		Next:     parsed.Get("next").String(),
		Previous: parsed.Get("previous").String(),
	}
	parsed.Get("results").ForEach(func(_, item gjson.Result) bool {
		page.Profiles = append(page.Profiles, flattenProfile(item))
		return true
	})
	return page
}

// Profiles fetches one page of profiles matching the filters.
func (c *Client) Profiles(ctx context.Context, token string, filters url.Values, limit, offset int) (ProfilePage, error) {
	if limit <= 0 {
		limit = profilePageSize
	}
	params := url.Values{}
	for key, values := range filters {
		params[key] = values
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, token, profilePath, params)
	if err != nil {
		return ProfilePage{}, err
	}
	return parseProfilePage(body), nil
}

// AllProfiles aggregates every page matching the filters by following the
// upstream "next" links until exhausted.
func (c *Client) AllProfiles(ctx context.Context, token string, filters url.Values) ([]Profile, error) {
	params := url.Values{}
	for key, values := range filters {
		params[key] = values
	}
	params.Set("limit", strconv.Itoa(profilePageSize))
	params.Set("offset", "0")

	var all []Profile
	target := profilePath
	for page := 0; target != ""; page++ {
		if page >= maxProfilePages {
			return nil, fmt.Errorf("profile pagination exceeded %d pages", maxProfilePages)
		}
		body, err := c.get(ctx, token, target, params)
		if err != nil {
			return nil, err
		}
		parsed := parseProfilePage(body)
		all = append(all, parsed.Profiles...)

		// The next link already encodes the filters and offset.
		target = parsed.Next
		params = nil
	}
	return all, nil
}
