package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/matst80/flow-finder/pkg/cache"
	"github.com/matst80/flow-finder/pkg/catalog"
	"github.com/matst80/flow-finder/pkg/common"
	"github.com/matst80/flow-finder/pkg/config"
	"github.com/matst80/flow-finder/pkg/messaging"
	"github.com/matst80/flow-finder/pkg/notify"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

// Store is the part of the storage layer the handlers use.
type Store interface {
	ListContent(ctx context.Context, contentType types.ContentType) ([]types.ContentItem, error)
	GetContent(ctx context.Context, contentType types.ContentType, idOrSlug string) (types.ContentItem, error)
	SaveContent(ctx context.Context, item *types.ContentItem) ([]string, error)
	DeleteContent(ctx context.Context, contentType types.ContentType, id string) error
	GetProfile(ctx context.Context, userId string) (types.Profile, error)
	SaveContactRequest(ctx context.Context, req *types.ContactRequest) error
	ContactRequests(ctx context.Context, limit int) ([]types.ContactRequest, error)
	Ping() error
}

var contentTypes = []types.ContentType{types.ContentTypeBlog, types.ContentTypeFlows}

type WebServer struct {
	Catalog   *catalog.Catalog
	Db        Store
	Cache     *cache.Cache
	Publisher messaging.Publisher
	Watches   *notify.WatchService
	// NodeId marks the change events this instance publishes.
	NodeId string

	config        config.ServerConfig
	auth          *Authenticator
	contact       *contactLimiter
	notifications *common.QueueHandler[types.ContentItem]
	logger        *zap.Logger
}

type Options struct {
	Server  config.ServerConfig
	Auth    config.AuthConfig
	Contact config.ContactConfig
	NodeId  string
}

func NewWebServer(cat *catalog.Catalog, db Store, c *cache.Cache, publisher messaging.Publisher, watches *notify.WatchService, opts Options, logger *zap.Logger) *WebServer {
	if publisher == nil {
		publisher = messaging.NopPublisher{Logger: logger}
	}
	proxies, err := opts.Server.ProxyPrefixes()
	if err != nil {
		logger.Warn("ignoring trusted proxies", zap.Error(err))
	}
	ws := &WebServer{
		Catalog:   cat,
		Db:        db,
		Cache:     c,
		Publisher: publisher,
		Watches:   watches,
		NodeId:    opts.NodeId,
		config:    opts.Server,
		auth:      NewAuthenticator(opts.Auth, db),
		contact:   newContactLimiter(opts.Contact.PerMinute, opts.Contact.Burst, proxies),
		logger:    logger,
	}
	ws.notifications = common.NewQueueHandler(ws.notifyWatchers, 10, 5*time.Second)
	return ws
}

func (ws *WebServer) notifyWatchers(items []types.ContentItem) {
	if ws.Watches == nil {
		return
	}
	for _, item := range items {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sent, err := ws.Watches.FlowPublished(ctx, item)
		cancel()
		if err != nil {
			ws.logger.Warn("watch notification failed", zap.String("id", item.Id), zap.Error(err))
			continue
		}
		ws.logger.Info("watchers notified", zap.String("id", item.Id), zap.Int("sent", sent))
	}
}

// Load fills the catalog with every stored item.
func (ws *WebServer) Load(ctx context.Context) error {
	for _, contentType := range contentTypes {
		if err := ws.Reload(ctx, contentType); err != nil {
			return err
		}
	}
	return nil
}

// Reload replaces the catalog snapshot of contentType with the stored items
// and drops the cached listings.
func (ws *WebServer) Reload(ctx context.Context, contentType types.ContentType) error {
	items, err := ws.Db.ListContent(ctx, contentType)
	if err != nil {
		return err
	}
	ws.Catalog.Replace(contentType, items)
	ws.invalidate(ctx, contentType)
	ws.logger.Info("catalog loaded", zap.String("kind", string(contentType)), zap.Int("items", len(items)))
	return nil
}

func (ws *WebServer) invalidate(ctx context.Context, contentTypes ...types.ContentType) {
	for _, contentType := range contentTypes {
		if err := ws.Cache.InvalidatePrefix(ctx, cache.KindPrefix(contentType)); err != nil {
			ws.logger.Warn("cache invalidation failed", zap.String("kind", string(contentType)), zap.Error(err))
		}
	}
}

// ApplyChange brings the catalog in line with a change published by another
// instance. Events from this instance are ignored.
func (ws *WebServer) ApplyChange(ctx context.Context, change messaging.ContentChange) error {
	if change.Source != "" && change.Source == ws.NodeId {
		return nil
	}
	contentType, ok := types.ParseContentType(change.Kind)
	if !ok {
		return &types.ValidationError{Problems: []string{"unknown kind " + change.Kind}}
	}
	switch change.Action {
	case messaging.ActionUpsert:
		item, err := ws.Db.GetContent(ctx, contentType, change.Id)
		if errors.Is(err, storage.ErrNotFound) {
			ws.Catalog.Delete(contentType, change.Id)
			ws.invalidate(ctx, contentTypes...)
			return nil
		}
		if err != nil {
			return err
		}
		ws.Catalog.Upsert(item)
		ws.invalidate(ctx, contentTypes...)
	case messaging.ActionDelete:
		ws.Catalog.Delete(contentType, change.Id)
		ws.invalidate(ctx, contentType)
	default:
		return ws.Reload(ctx, contentType)
	}
	return nil
}

func (ws *WebServer) publishChange(ctx context.Context, contentType types.ContentType, id string, action messaging.ChangeAction) {
	err := ws.Publisher.ContentChanged(ctx, messaging.ContentChange{
		Kind:   string(contentType),
		Id:     id,
		Action: action,
		Source: ws.NodeId,
	})
	if err != nil {
		ws.logger.Warn("publish content change failed", zap.String("id", id), zap.Error(err))
	}
}

// Handler returns the public api and the admin api on one mux.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	ws.ClientHandlers(mux)
	ws.AdminHandlers(mux)
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		common.RespondToOptions(w, r, ws.config.AllowedOrigins)
	})
	return instrument(mux)
}

// Close waits for pending watch notifications.
func (ws *WebServer) Close(ctx context.Context) error {
	return ws.notifications.Close(ctx)
}
