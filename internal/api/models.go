package api

import "go.domaincheck.dev/checker/internal/model"

// CheckRequest is the body of POST /v1/check and the initial frame sent
// over the /v1/check/stream websocket.
type CheckRequest struct {
	Domains []string `json:"domains" binding:"required"`
}

// CheckResponse wraps a batch of results, sorted to match Domains order.
type CheckResponse struct {
	Results []ResultDTO `json:"results"`
}

// ErrorResponse is the uniform error body for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResultDTO is the wire shape of a model.DomainResult. Kept distinct from
// model.DomainResult so the wire format can evolve independently of the
// internal record (e.g. flattening *model.CheckError to a string).
type ResultDTO struct {
	FQDN         string   `json:"fqdn"`
	Availability string   `json:"availability"`
	MethodUsed   string   `json:"method_used"`
	Registrar    string   `json:"registrar,omitempty"`
	CreationDate string   `json:"creation_date,omitempty"`
	ExpiryDate   string   `json:"expiry_date,omitempty"`
	UpdatedDate  string   `json:"updated_date,omitempty"`
	StatusCodes  []string `json:"status_codes,omitempty"`
	NameServers  []string `json:"name_servers,omitempty"`
	Error        string   `json:"error,omitempty"`
	ErrorKind    string   `json:"error_kind,omitempty"`
}

func toDTO(r model.DomainResult) ResultDTO {
	dto := ResultDTO{
		FQDN:         r.FQDN,
		Availability: string(r.Availability),
		MethodUsed:   string(r.MethodUsed),
		Registrar:    r.Registrar,
		CreationDate: r.CreationDate,
		ExpiryDate:   r.ExpiryDate,
		UpdatedDate:  r.UpdatedDate,
		StatusCodes:  r.StatusCodes,
		NameServers:  r.NameServers,
	}
	if r.Error != nil {
		dto.Error = r.Error.Error()
		dto.ErrorKind = string(r.Error.Kind)
	}
	return dto
}
