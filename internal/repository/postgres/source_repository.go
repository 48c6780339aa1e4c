package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/store"
)

// SourceRepository is the Postgres implementation of
// domain.SourceRepository. It carries no connection of its own —
// every method takes the store.Querier to run against, so the same
// code serves both ad hoc reads and the reconcile transaction.
type SourceRepository struct{}

func NewSourceRepository() domain.SourceRepository {
	return &SourceRepository{}
}

const sourceColumns = `
	sources.id, sources.code, sources.url, sources.params, sources.headers,
	sources.auth_type, sources.auth_username, sources.auth_password, sources.auth_token, sources.auth_param,
	sources.timeout, sources.body_type, sources.body_text, sources.body_json, sources.fallback
`

func scanSource(row pgx.Row) (*domain.Source, error) {
	var (
		s                                      domain.Source
		params, headers                        []byte
		authType                                string
		authUsername, authPassword, authToken  *string
		authParam                               []byte
		timeoutUs                               *int64
		bodyType                                string
		bodyText                                *string
		bodyJSON                                []byte
		fallback                                []byte
	)

	if err := row.Scan(
		&s.ID, &s.Code, &s.URL, &params, &headers,
		&authType, &authUsername, &authPassword, &authToken, &authParam,
		&timeoutUs, &bodyType, &bodyText, &bodyJSON, &fallback,
	); err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &s.Params); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &s.Headers); err != nil {
			return nil, err
		}
	}

	s.Auth = decodeAuth(authType, authUsername, authPassword, authToken, authParam)
	s.Body = decodeBody(bodyType, bodyText, bodyJSON)

	if timeoutUs != nil {
		d := time.Duration(*timeoutUs) * time.Microsecond
		s.Timeout = &d
	}
	if len(fallback) > 0 {
		s.Fallback = json.RawMessage(fallback)
	}

	return &s, nil
}

func decodeAuth(kind string, username, password, token *string, param []byte) domain.Auth {
	switch domain.AuthKind(kind) {
	case domain.AuthBasic:
		return domain.BasicAuth(derefStr(username), derefStr(password))
	case domain.AuthBearer:
		return domain.BearerAuth(derefStr(token))
	case domain.AuthParam:
		m := map[string]string{}
		if len(param) > 0 {
			_ = json.Unmarshal(param, &m)
		}
		for k, v := range m {
			return domain.ParamAuth(k, v)
		}
		return domain.ParamAuth("", "")
	default:
		return domain.NoAuth
	}
}

func decodeBody(kind string, text *string, jsonVal []byte) domain.Body {
	switch domain.BodyKind(kind) {
	case domain.BodyText:
		return domain.TextBody(derefStr(text))
	case domain.BodyJSON:
		return domain.JSONBody(json.RawMessage(jsonVal))
	case domain.BodyForm:
		m := map[string]string{}
		if len(jsonVal) > 0 {
			_ = json.Unmarshal(jsonVal, &m)
		}
		return domain.FormBody(m)
	case domain.BodyMulti:
		m := map[string]string{}
		if len(jsonVal) > 0 {
			_ = json.Unmarshal(jsonVal, &m)
		}
		return domain.MultiBody(m)
	default:
		return domain.NoBody
	}
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func authColumns(a domain.Auth) (authType string, username, password, token *string, param []byte) {
	authType = string(a.Kind)
	switch a.Kind {
	case domain.AuthBasic:
		username, password = &a.Username, &a.Password
	case domain.AuthBearer:
		token = &a.Token
	case domain.AuthParam:
		b, _ := json.Marshal(map[string]string{a.ParamKey: a.ParamVal})
		param = b
	}
	return
}

func bodyColumns(b domain.Body) (bodyType string, text *string, jsonVal []byte) {
	bodyType = string(b.Kind)
	switch b.Kind {
	case domain.BodyText:
		text = &b.Text
	case domain.BodyJSON:
		jsonVal = b.JSON
	case domain.BodyForm:
		jsonVal, _ = json.Marshal(b.Form)
	case domain.BodyMulti:
		jsonVal, _ = json.Marshal(b.Multi)
	}
	return
}

func (r *SourceRepository) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.Source, error) {
	row := q.QueryRow(ctx, "SELECT "+sourceColumns+" FROM sources WHERE sources.id = $1;", id)
	return scanSource(row)
}

func (r *SourceRepository) SelectByCode(ctx context.Context, q store.Querier, code string) (*domain.Source, error) {
	row := q.QueryRow(ctx, "SELECT "+sourceColumns+" FROM sources WHERE sources.code = $1;", code)
	return scanSource(row)
}

func (r *SourceRepository) Exists(ctx context.Context, q store.Querier, code string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM sources WHERE sources.code = $1);", code).Scan(&exists)
	return exists, err
}

func (r *SourceRepository) Insert(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	authType, authUsername, authPassword, authToken, authParam := authColumns(s.Auth)
	bodyType, bodyText, bodyJSON := bodyColumns(s.Body)
	params, _ := json.Marshal(s.Params)
	headers, _ := json.Marshal(s.Headers)

	row := q.QueryRow(ctx, `
		INSERT INTO sources (
			code, url, params, headers,
			auth_type, auth_username, auth_password, auth_token, auth_param,
			timeout, body_type, body_text, body_json, fallback
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+sourceColumns+`;
	`,
		s.Code, s.URL, params, headers,
		authType, authUsername, authPassword, authToken, authParam,
		timeoutMicros(s.Timeout), bodyType, bodyText, bodyJSON, []byte(s.Fallback),
	)
	return scanSource(row)
}

func (r *SourceRepository) Update(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	authType, authUsername, authPassword, authToken, authParam := authColumns(s.Auth)
	bodyType, bodyText, bodyJSON := bodyColumns(s.Body)
	params, _ := json.Marshal(s.Params)
	headers, _ := json.Marshal(s.Headers)

	row := q.QueryRow(ctx, `
		UPDATE sources
		SET url = $1, params = $2, headers = $3,
			auth_type = $4, auth_username = $5, auth_password = $6, auth_token = $7, auth_param = $8,
			timeout = $9, body_type = $10, body_text = $11, body_json = $12, fallback = $13
		WHERE sources.code = $14
		RETURNING `+sourceColumns+`;
	`,
		s.URL, params, headers,
		authType, authUsername, authPassword, authToken, authParam,
		timeoutMicros(s.Timeout), bodyType, bodyText, bodyJSON, []byte(s.Fallback),
		s.Code,
	)
	return scanSource(row)
}

func (r *SourceRepository) Delete(ctx context.Context, q store.Querier, code string) error {
	_, err := q.Exec(ctx, "DELETE FROM sources WHERE sources.code = $1;", code)
	return err
}

func (r *SourceRepository) InsertOrUpdate(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	exists, err := r.Exists(ctx, q, s.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return r.Update(ctx, q, s)
	}
	return r.Insert(ctx, q, s)
}

func timeoutMicros(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	v := d.Microseconds()
	return &v
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
