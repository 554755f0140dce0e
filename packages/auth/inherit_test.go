package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func TestInherit(t *testing.T) {
	collection := &model.RequestAuth{
		Type:   model.AuthBearer,
		Bearer: []model.AuthVariable{{Key: "token", Value: "{{api_token}}"}},
	}
	noauth := &model.RequestAuth{Type: model.AuthNoAuth}
	basic := &model.RequestAuth{Type: model.AuthBasic}

	tests := []struct {
		name       string
		request    *model.RequestAuth
		collection *model.RequestAuth
		expected   *model.RequestAuth
	}{
		{name: "undefined inherits collection", request: nil, collection: collection, expected: collection},
		{name: "explicit inherit", request: &model.RequestAuth{Type: model.AuthInherit}, collection: collection, expected: collection},
		{name: "empty type inherits", request: &model.RequestAuth{}, collection: collection, expected: collection},
		{name: "noauth overrides", request: noauth, collection: collection, expected: noauth},
		{name: "request type overrides", request: basic, collection: collection, expected: basic},
		{name: "nothing anywhere", request: nil, collection: nil, expected: nil},
		{name: "no ancestor chaining", request: nil, collection: &model.RequestAuth{Type: model.AuthInherit}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.expected, Inherit(tt.request, tt.collection))
		})
	}
}
