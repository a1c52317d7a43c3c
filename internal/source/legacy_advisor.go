package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// LegacyAdvisorCollection is the document-store collection holding advisors.
const LegacyAdvisorCollection = "advisors"

// ErrLegacyEmailMissing is returned for advisor documents without an email.
var ErrLegacyEmailMissing = errors.New("legacy advisor has no email")

// LegacyAdvisor is an advisor document normalized into the canonical shape.
type LegacyAdvisor struct {
	LegacyID string
	Advisor  model.Advisor
	// Password holds the stored credential. PasswordHashed is false when the
	// document kept it in clear text and it still needs hashing.
	Password       string
	PasswordHashed bool
	// Skipped lists roster references that are not numeric student IDs.
	Skipped []string
}

// LegacyAdvisorSource reads advisors from the document store.
type LegacyAdvisorSource struct {
	coll *mongo.Collection
	log  zerolog.Logger
}

// NewLegacyAdvisorSource creates a LegacyAdvisorSource over db.
func NewLegacyAdvisorSource(db *mongo.Database, log zerolog.Logger) *LegacyAdvisorSource {
	return &LegacyAdvisorSource{
		coll: db.Collection(LegacyAdvisorCollection),
		log:  log.With().Str("component", "legacy_advisor_source").Logger(),
	}
}

// All loads and normalizes every advisor document. Documents that cannot be
// normalized are logged and skipped.
func (s *LegacyAdvisorSource) All(ctx context.Context) ([]LegacyAdvisor, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find advisors: %w", err)
	}
	defer cur.Close(ctx)

	var out []LegacyAdvisor
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode advisor: %w", err)
		}
		adv, err := NormalizeAdvisorDocument(doc)
		if err != nil {
			s.log.Warn().Err(err).Interface("_id", doc["_id"]).Msg("Skipping advisor document")
			continue
		}
		out = append(out, adv)
	}
	return out, cur.Err()
}

// NormalizeAdvisorDocument maps the loosely-typed advisor document onto
// model.Advisor. Both the advisor_name and Advisor_Name spellings are accepted.
func NormalizeAdvisorDocument(doc bson.M) (LegacyAdvisor, error) {
	var out LegacyAdvisor

	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		out.LegacyID = id.Hex()
	case nil:
	default:
		out.LegacyID = fmt.Sprint(id)
	}

	email := strings.ToLower(strings.TrimSpace(firstString(doc, "Email", "email")))
	if email == "" {
		return out, ErrLegacyEmailMissing
	}

	out.Advisor = model.Advisor{
		Email:    email,
		Name:     strings.TrimSpace(firstString(doc, "advisor_name", "Advisor_Name", "Teacher_Name", "name")),
		Role:     model.RoleAdvisor,
		Students: []int{},
	}
	if out.Advisor.Name == "" {
		out.Advisor.Name = email
	}

	out.Password = firstString(doc, "Password", "password")
	out.PasswordHashed = isBcrypt(out.Password)

	refs, _ := doc["Students"].(bson.A)
	seen := make(map[int]struct{}, len(refs))
	for _, ref := range refs {
		id, ok := studentRef(ref)
		if !ok {
			out.Skipped = append(out.Skipped, fmt.Sprint(ref))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.Advisor.Students = append(out.Advisor.Students, id)
	}
	return out, nil
}

func firstString(doc bson.M, keys ...string) string {
	for _, k := range keys {
		if v, ok := doc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// studentRef converts a roster entry into a StudentID. ObjectID references
// point at documents that no longer exist and are rejected.
func studentRef(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), n > 0
	case int64:
		return int(n), n > 0
	case int:
		return n, n > 0
	case float64:
		if n != math.Trunc(n) || n <= 0 {
			return 0, false
		}
		return int(n), true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(n))
		return id, err == nil && id > 0
	}
	return 0, false
}

func isBcrypt(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
