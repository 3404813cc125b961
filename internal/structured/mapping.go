package structured

import (
	"strings"

	"github.com/openrdap/rdap"

	"go.domaincheck.dev/checker/internal/model"
)

// mapDomainToRegistration extracts the fields a caller cares about
// (registrar, lifecycle dates, status codes, nameservers), tolerating
// missing fields. Dates are kept as the raw ISO-8601 strings RDAP sends,
// never reinterpreted.
func mapDomainToRegistration(d *rdap.Domain) *model.Registration {
	reg := &model.Registration{}
	if d == nil {
		return reg
	}

	reg.StatusCodes = append(reg.StatusCodes, d.Status...)

	for _, ev := range d.Events {
		switch strings.ToLower(ev.Action) {
		case "registration":
			reg.CreationDate = ev.Date
		case "expiration":
			reg.ExpiryDate = ev.Date
		case "last changed":
			reg.UpdatedDate = ev.Date
		}
	}

	reg.Registrar = registrarName(d.Entities)

	for _, ns := range d.Nameservers {
		if ns.LDHName != "" {
			reg.NameServers = append(reg.NameServers, strings.ToLower(ns.LDHName))
		}
	}

	return reg
}

func registrarName(entities []rdap.Entity) string {
	for _, e := range entities {
		if !hasRole(e.Roles, "registrar") {
			continue
		}
		if name := vcardFN(e.VCard); name != "" {
			return name
		}
	}
	return ""
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, want) {
			return true
		}
	}
	return false
}

// vcardFN reads the vCard "FN" (formatted name) property, RDAP's
// conventional place for a registrar's display name.
func vcardFN(vc *rdap.VCard) string {
	if vc == nil {
		return ""
	}
	if n := vc.Name(); n != "" {
		return n
	}
	if p := vc.GetFirst("fn"); p != nil {
		if vals := p.Values(); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
