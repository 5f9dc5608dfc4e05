package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/repositories/channels"
	"github.com/dmitrijs2005/golive/internal/repositories/comments"
	"github.com/dmitrijs2005/golive/internal/repositories/likes"
	"github.com/dmitrijs2005/golive/internal/repositories/reclamations"
	"github.com/dmitrijs2005/golive/internal/repositories/videos"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Videos(db dbx.DBTX) videos.Repository
	Likes(db dbx.DBTX) likes.Repository
	Comments(db dbx.DBTX) comments.Repository
	Channels(db dbx.DBTX) channels.Repository
	Reclamations(db dbx.DBTX) reclamations.Repository
}
