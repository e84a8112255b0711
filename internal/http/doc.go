// Package httpapp provides the HTTP API for devconnect.
//
//	@title						DevConnect API
//	@version					1.0
//	@description				Developer social network backend: accounts, posts, likes and comments.
//	@description
//	@description				## Authentication
//	@description
//	@description				Register with `POST /api/users` or log in with `POST /api/auth`. Both return
//	@description				`{"token": "..."}`. Send the token on every protected request:
//	@description				```bash
//	@description				curl -H "x-auth-token: TOKEN" /api/posts
//	@description				```
//	@description				Tokens expire after 100 hours by default.
//	@description
//	@description				## Errors
//	@description				Validation failures return `{"errors":[{"param":"email","msg":"..."}]}`.
//	@description				Everything else returns `{"msg":"..."}`.
//
//	@contact.name				DevConnect
//	@license.name				MIT
//
//	@host						localhost:5000
//	@BasePath					/
//
//	@securityDefinitions.apikey	TokenAuth
//	@in							header
//	@name						x-auth-token
//	@description				Token from POST /api/auth or POST /api/users
//
//	@tag.name					Users
//	@tag.description			Account registration.
//
//	@tag.name					Auth
//	@tag.description			Login and identity check.
//
//	@tag.name					Posts
//	@tag.description			Create, read and delete posts.
//
//	@tag.name					Likes
//	@tag.description			One like per user per post.
//
//	@tag.name					Comments
//	@tag.description			Comments on posts. Only the author can remove a comment.
package httpapp
