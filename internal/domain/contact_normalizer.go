package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Resolution order per canonical field, first non-empty value wins.
var (
	nameKeys            = []string{"name", "full_name"}
	emailKeys           = []string{"email"}
	phoneKeys           = []string{"phone", "phone_number"}
	companyKeys         = []string{"company", "company_name"}
	positionKeys        = []string{"position", "contact_position", "headline", "title"}
	addressKeys         = []string{"address", "location"}
	statusKeys          = []string{"status"}
	contactInfoKey      = "contact_info"
	firstNameKey        = "firstName"
	lastNameKey         = "lastName"
	contactInfoEmailKey = "email"
	contactInfoPhoneKey = "phone"
)

// sourceRecord resolves keys exactly first, then ignoring case and surrounding whitespace
type sourceRecord struct {
	raw    map[string]interface{}
	folded map[string]interface{}
}

func newSourceRecord(raw map[string]interface{}) sourceRecord {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// sorted so that colliding spellings resolve the same way every time
	sort.Strings(keys)

	folded := make(map[string]interface{}, len(raw))
	for _, k := range keys {
		fk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := folded[fk]; !exists {
			folded[fk] = raw[k]
		}
	}
	return sourceRecord{raw: raw, folded: folded}
}

func (r sourceRecord) lookup(key string) (interface{}, bool) {
	if v, ok := r.raw[key]; ok {
		return v, true
	}
	v, ok := r.folded[strings.ToLower(key)]
	return v, ok
}

// text returns the trimmed string form of key, or "" when absent or not scalar text
func (r sourceRecord) text(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	return scalarText(v)
}

func (r sourceRecord) first(keys ...string) string {
	for _, k := range keys {
		if s := r.text(k); s != "" {
			return s
		}
	}
	return ""
}

func (r sourceRecord) nested(key string) (sourceRecord, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return sourceRecord{}, false
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return sourceRecord{}, false
	}
	return newSourceRecord(m), true
}

func scalarText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		// booleans, arrays, objects and nil carry no usable text
		return ""
	}
}

// NormalizeContactRecord maps one externally shaped record to the canonical contact shape.
// It never fails: unusable values degrade to absent fields. Source tags are always dropped.
func NormalizeContactRecord(record map[string]interface{}) *ContactData {
	r := newSourceRecord(record)
	info, hasInfo := r.nested(contactInfoKey)

	name := r.first(nameKeys...)
	if name == "" {
		first, last := r.text(firstNameKey), r.text(lastNameKey)
		if first != "" && last != "" {
			name = first + " " + last
		}
	}

	email := r.first(emailKeys...)
	if email == "" && hasInfo {
		email = info.text(contactInfoEmailKey)
	}

	phone := r.first(phoneKeys...)
	if phone == "" && hasInfo {
		phone = info.text(contactInfoPhoneKey)
	}

	status := r.first(statusKeys...)
	if status == "" {
		status = ContactStatusNew
	}

	return &ContactData{
		Name:            optionalString(name),
		Email:           optionalString(email),
		PhoneNumber:     optionalString(phone),
		CompanyName:     optionalString(r.first(companyKeys...)),
		ContactPosition: optionalString(r.first(positionKeys...)),
		Address:         optionalString(r.first(addressKeys...)),
		Status:          status,
		Tags:            nil,
	}
}

// NormalizeContactPayload accepts a list of records, a {leads: [...]} or {data: [...]}
// envelope, or a single record. Elements that are not objects are skipped.
func NormalizeContactPayload(payload interface{}) []*ContactData {
	var items []interface{}

	switch p := payload.(type) {
	case []interface{}:
		items = p
	case []map[string]interface{}:
		for _, m := range p {
			items = append(items, m)
		}
	case map[string]interface{}:
		if list, ok := p["leads"].([]interface{}); ok {
			items = list
		} else if list, ok := p["data"].([]interface{}); ok {
			items = list
		} else {
			items = []interface{}{p}
		}
	default:
		return []*ContactData{}
	}

	out := make([]*ContactData, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, NormalizeContactRecord(m))
		}
	}
	return out
}

// AttachTags applies the same tag list to every contact. Nil or empty tags leave contacts untouched.
func AttachTags(contacts []*ContactData, tags []string) {
	tags = NormalizeTags(tags)
	if len(tags) == 0 {
		return
	}
	for _, c := range contacts {
		c.Tags = append([]string(nil), tags...)
	}
}
