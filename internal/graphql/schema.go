// Package graphql is the GraphQL transport: one POST /graphql endpoint whose
// resolvers call the same services as the REST handlers.
//
// A failing resolver produces an errors[] entry whose message is the domain
// message and whose extensions are the {message, name} body REST would send
// for the same error.
package graphql

import (
	"context"

	gql "github.com/graphql-go/graphql"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/auth"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/service"
)

// NoteUseCases is the note side of the service layer.
type NoteUseCases interface {
	Create(ctx context.Context, token, title, description string) (*model.Note, error)
	List(ctx context.Context, token string, page, limit int) (*model.PaginatedNotes, error)
	Get(ctx context.Context, token, id string) (*model.Note, error)
	SetFinished(ctx context.Context, token, id string, finished bool) (*model.Note, error)
	Delete(ctx context.Context, token, id string) error
}

// Authenticator is the account side of the service layer.
type Authenticator interface {
	SignUp(ctx context.Context, in service.SignUpInput) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}

// resolverError carries the shared error body into the response's
// extensions. graphql-go copies Extensions() onto the formatted error.
type resolverError struct {
	body apperror.ErrorBody
}

func (e *resolverError) Error() string { return e.body.Message }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"message": e.body.Message,
		"name":    e.body.Name,
	}
}

func newResolverError(err error) *resolverError {
	_, body := apperror.Payload(err)
	return &resolverError{body: body}
}

// toResolverError renders err for errors[] and records session failures on
// the request so the handler can answer 401.
func toResolverError(ctx context.Context, err error) error {
	if apperror.IsAuthFailure(err) {
		if o := outcomeFrom(ctx); o != nil {
			o.authFailed.Store(true)
		}
	}
	return newResolverError(err)
}

var noteType = gql.NewObject(gql.ObjectConfig{
	Name: "Note",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"userId":      &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"title":       &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.NewNonNull(gql.String)},
		"finished":    &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"createdAt":   &gql.Field{Type: gql.NewNonNull(gql.DateTime)},
	},
})

// pageNeighbour resolves previous/next, which are nil at either end.
func pageNeighbour(pick func(*model.PaginatedNotes) *int) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (interface{}, error) {
		page, _ := p.Source.(*model.PaginatedNotes)
		if page == nil {
			return nil, nil
		}
		if v := pick(page); v != nil {
			return *v, nil
		}
		return nil, nil
	}
}

var paginatedNotesType = gql.NewObject(gql.ObjectConfig{
	Name: "PaginatedNotes",
	Fields: gql.Fields{
		"notes": &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(noteType)))},
		"previous": &gql.Field{
			Type:    gql.Int,
			Resolve: pageNeighbour(func(p *model.PaginatedNotes) *int { return p.Previous }),
		},
		"next": &gql.Field{
			Type:    gql.Int,
			Resolve: pageNeighbour(func(p *model.PaginatedNotes) *int { return p.Next }),
		},
	},
})

var authPayloadType = gql.NewObject(gql.ObjectConfig{
	Name: "AuthPayload",
	Fields: gql.Fields{
		"accessToken": &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

type authPayload struct {
	AccessToken string `json:"accessToken"`
}

func nonNullString() *gql.ArgumentConfig {
	return &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)}
}

func stringArg(p gql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// NewSchema builds the executable schema over the two services.
func NewSchema(notes NoteUseCases, accounts Authenticator) (gql.Schema, error) {
	token := func(p gql.ResolveParams) string {
		return auth.CredentialFromContext(p.Context)
	}

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"getNotesByUserId": &gql.Field{
				Type: gql.NewNonNull(paginatedNotesType),
				Args: gql.FieldConfigArgument{
					"page":  &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 0},
					"limit": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: service.DefaultPageLimit},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					page, _ := p.Args["page"].(int)
					limit, _ := p.Args["limit"].(int)
					result, err := notes.List(p.Context, token(p), page, limit)
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return result, nil
				},
			},
			"getNoteById": &gql.Field{
				Type: noteType,
				Args: gql.FieldConfigArgument{"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)}},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					note, err := notes.Get(p.Context, token(p), stringArg(p, "id"))
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return note, nil
				},
			},
		},
	})

	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"signUp": &gql.Field{
				Type: authPayloadType,
				Args: gql.FieldConfigArgument{
					"email":    nonNullString(),
					"password": nonNullString(),
					"name":     nonNullString(),
					"lastname": nonNullString(),
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					tok, err := accounts.SignUp(p.Context, service.SignUpInput{
						Email:    stringArg(p, "email"),
						Password: stringArg(p, "password"),
						Name:     stringArg(p, "name"),
						Lastname: stringArg(p, "lastname"),
					})
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return authPayload{AccessToken: tok}, nil
				},
			},
			"signIn": &gql.Field{
				Type: authPayloadType,
				Args: gql.FieldConfigArgument{
					"email":    nonNullString(),
					"password": nonNullString(),
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					tok, err := accounts.SignIn(p.Context, stringArg(p, "email"), stringArg(p, "password"))
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return authPayload{AccessToken: tok}, nil
				},
			},
			"createNote": &gql.Field{
				Type: noteType,
				Args: gql.FieldConfigArgument{
					"title":       nonNullString(),
					"description": &gql.ArgumentConfig{Type: gql.String, DefaultValue: ""},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					note, err := notes.Create(p.Context, token(p), stringArg(p, "title"), stringArg(p, "description"))
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return note, nil
				},
			},
			"updateFinishedNote": &gql.Field{
				Type: noteType,
				Args: gql.FieldConfigArgument{
					"id":       &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
					"finished": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Boolean)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					finished, _ := p.Args["finished"].(bool)
					note, err := notes.SetFinished(p.Context, token(p), stringArg(p, "id"), finished)
					if err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return note, nil
				},
			},
			"deleteNote": &gql.Field{
				Type: gql.Boolean,
				Args: gql.FieldConfigArgument{"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)}},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					if err := notes.Delete(p.Context, token(p), stringArg(p, "id")); err != nil {
						return nil, toResolverError(p.Context, err)
					}
					return true, nil
				},
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{Query: query, Mutation: mutation})
}
