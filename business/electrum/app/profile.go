package app

import (
	"context"
	"strconv"

	"github.com/fd1az/electrum-core/business/electrum/domain"
)

// VerifyProfile looks up the profile registered for profileID. A missing
// profile, a slow server or any error yields the zero profile.
func (s *QueryService) VerifyProfile(ctx context.Context, profileID string) domain.Profile {
	ctx, cancel := context.WithTimeout(ctx, profileTimeout)
	defer cancel()

	var raw map[string]any
	if err := s.rpc.Call(ctx, &raw, domain.MethodGetProfile, profileID); err != nil {
		s.log.Warn(ctx, "profile lookup failed", "profile", profileID, "error", err)
		return emptyProfile()
	}
	if raw == nil {
		s.log.Info(ctx, "no profile found", "profile", profileID)
		return emptyProfile()
	}
	return coerceProfile(raw)
}

func emptyProfile() domain.Profile {
	return domain.Profile{OwnedProfiles: []any{}}
}

// coerceProfile copies known fields, converting each to its declared type.
func coerceProfile(raw map[string]any) domain.Profile {
	p := domain.Profile{
		Creator:      asString(raw["creator"]),
		Owner:        asString(raw["owner"]),
		Signer:       asString(raw["signer"]),
		Name:         asString(raw["name"]),
		Link:         asString(raw["link"]),
		AppData:      asString(raw["appData"]),
		RPs:          asInt(raw["rps"]),
		GeneratedRPs: asInt(raw["generatedRPs"]),
		IsRented:     asBool(raw["isRented"]),
		Tenant:       asString(raw["tenant"]),
		RentedAt:     asInt(raw["rentedAt"]),
		Duration:     asInt(raw["duration"]),
		IsCandidate:  asBool(raw["isCandidate"]),
		IsBanned:     asBool(raw["isBanned"]),
		Contribution: asInt(raw["contribution"]),
		IsDomain:     asBool(raw["isDomain"]),
		OfferedAt:    asInt(raw["offeredAt"]),
		BidAmount:    asInt(raw["bidAmount"]),
		Buyer:        asString(raw["buyer"]),
		Balance:      asInt(raw["balance"]),
		BidTarget:    asString(raw["bidTarget"]),
	}

	owned, _ := raw["ownedProfiles"].([]any)
	if owned == nil {
		owned = []any{}
	}
	p.OwnedProfiles = owned
	p.OwnedProfilesCount = len(owned)
	return p
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return int64(n)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	case float64:
		return t != 0
	default:
		return false
	}
}
