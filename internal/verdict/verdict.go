// Package verdict defines the single observable outcome of a fee lookup.
package verdict

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Kind tags a Verdict.
type Kind string

const (
	KindNoFee       Kind = "no-fee"
	KindParking     Kind = "parking"
	KindGeneral     Kind = "general"
	KindHomepage    Kind = "homepage"
	KindNotVerified Kind = "not-verified"
)

// Fee info labels. The kind of a verdict determines which one is used.
const (
	InfoNoFee       = "No fee"
	InfoFeeCharged  = "Fee charged"
	InfoParkingFee  = "Parking fee"
	InfoNotVerified = "Not verified"
)

// Verdict is the result of one lookup. Build it with the constructors so
// that Kind, FeeInfo and URL stay consistent.
type Verdict struct {
	Kind Kind
	// URL is the supporting page; empty only for KindNotVerified.
	URL string
	// Homepage is an official page found when no fee evidence was found.
	Homepage string
	FeeInfo  string
	Title    string
}

// NoFee reports a page that states there is no entrance fee.
func NoFee(url, title string) Verdict {
	return Verdict{Kind: KindNoFee, URL: url, FeeInfo: InfoNoFee, Title: title}
}

// General reports a general entrance fee. amount may be empty.
func General(url, title, amount string) Verdict {
	info := strings.TrimSpace(amount)
	if info == "" {
		info = InfoFeeCharged
	}
	return Verdict{Kind: KindGeneral, URL: url, FeeInfo: info, Title: title}
}

// Parking reports a parking-only fee. amount may be empty.
func Parking(url, title, amount string) Verdict {
	info := strings.TrimSpace(amount)
	if info == "" {
		info = InfoParkingFee
	}
	return Verdict{Kind: KindParking, URL: url, FeeInfo: info, Title: title}
}

// HomepageOnly reports an official page without fee evidence.
func HomepageOnly(url, title string) Verdict {
	return Verdict{Kind: KindHomepage, URL: url, Homepage: url, FeeInfo: InfoNotVerified, Title: title}
}

// NotVerified is the terminal default when nothing could be verified.
func NotVerified() Verdict {
	return Verdict{Kind: KindNotVerified, FeeInfo: InfoNotVerified}
}

// IsFee reports whether the verdict found a fee of any kind.
func (v Verdict) IsFee() bool {
	return v.Kind == KindGeneral || v.Kind == KindParking
}

// Verified reports whether the verdict carries fee evidence, positive or negative.
func (v Verdict) Verified() bool {
	switch v.Kind {
	case KindNoFee, KindGeneral, KindParking:
		return true
	case KindHomepage, KindNotVerified:
		return false
	default:
		return false
	}
}

// Domain returns the hostname of URL, or "" when there is none.
func (v Verdict) Domain() string {
	if v.URL == "" {
		return ""
	}
	u, err := url.Parse(v.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

type wireVerdict struct {
	URL      *string `json:"url"`
	Homepage *string `json:"homepage"`
	Domain   *string `json:"domain"`
	Title    string  `json:"title"`
	FeeInfo  string  `json:"feeInfo"`
	Kind     Kind    `json:"kind"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON encodes missing URLs as null, matching the lookup API response.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireVerdict{
		URL:      nullable(v.URL),
		Homepage: nullable(v.Homepage),
		Domain:   nullable(v.Domain()),
		Title:    v.Title,
		FeeInfo:  v.FeeInfo,
		Kind:     v.Kind,
	})
}

// UnmarshalJSON decodes the lookup API response shape.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var w wireVerdict
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Verdict{Kind: w.Kind, FeeInfo: w.FeeInfo, Title: w.Title}
	if w.URL != nil {
		v.URL = *w.URL
	}
	if w.Homepage != nil {
		v.Homepage = *w.Homepage
	}
	return nil
}
