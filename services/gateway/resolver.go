package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ryotgo/internal/apperror"
	"ryotgo/internal/config"
	"ryotgo/internal/database"
	"ryotgo/internal/objectstorage"
	"ryotgo/models"
	"ryotgo/services/consumption"
	"ryotgo/services/exporter"
	"ryotgo/services/fitness"
	"ryotgo/services/jobs"
	"ryotgo/services/sessions"
)

// actor carries the caller identity the transport layer already
// resolved from the bearer token, or the zero value for an
// unauthenticated request (userAuthentication's own fields are the
// only ones that tolerate that).
type actor struct {
	UserID        string
	IsAdmin       bool
	Authenticated bool
}

// Resolver is the root-resolver struct spec.md §6 calls for: one
// method per module, dispatched to by field name. It holds exactly the
// services/repositories a thin gateway needs; the heavy lifting stays
// in the packages it calls into.
type Resolver struct {
	users         *database.UserRepository
	metadata      *database.MetadataRepository
	collections   *database.CollectionRepository
	reviews       *database.ReviewRepository
	activities    *database.ActivityRepository
	imports       *database.ImportRepository
	sessions      *sessions.Service
	consumption   *consumption.Engine
	fitness       *fitness.Engine
	exporter      *exporter.Service
	store         *objectstorage.Store
	queues        *jobs.Queues
	cfg           *config.App
}

func NewResolver(
	users *database.UserRepository,
	metadata *database.MetadataRepository,
	collections *database.CollectionRepository,
	reviews *database.ReviewRepository,
	activities *database.ActivityRepository,
	imports *database.ImportRepository,
	sessionsSvc *sessions.Service,
	consumptionEngine *consumption.Engine,
	fitnessEngine *fitness.Engine,
	exporterSvc *exporter.Service,
	store *objectstorage.Store,
	queues *jobs.Queues,
	cfg *config.App,
) *Resolver {
	return &Resolver{
		users: users, metadata: metadata, collections: collections, reviews: reviews,
		activities: activities, imports: imports, sessions: sessionsSvc,
		consumption: consumptionEngine, fitness: fitnessEngine, exporter: exporterSvc,
		store: store, queues: queues, cfg: cfg,
	}
}

// moduleFunc is the shape every resolver module method has: an action
// name selects the behavior within the module, input carries its
// already JSON-decoded argument object.
type moduleFunc func(ctx context.Context, a actor, action string, input map[string]any) (any, error)

// dispatch resolves field (the module) to its moduleFunc. Unknown
// fields can't happen once validator.Validate has passed, since the
// schema only declares these names.
func (r *Resolver) dispatch(field string) moduleFunc {
	switch field {
	case "fitness":
		return r.resolveFitness
	case "importer":
		return r.resolveImporter
	case "exporter":
		return r.resolveExporter
	case "statistics":
		return r.resolveStatistics
	case "collection":
		return r.resolveCollection
	case "fileStorage":
		return r.resolveFileStorage
	case "userServices":
		return r.resolveUserServices
	case "userManagement":
		return r.resolveUserManagement
	case "userAuthentication":
		return r.resolveUserAuthentication
	case "social":
		return r.resolveSocial
	case "system":
		return r.resolveSystem
	case "tracking":
		return r.resolveTracking
	case "metadata":
		return r.resolveMetadata
	case "search", "grouping", "filterPreset", "mediaTranslation", "custom":
		return r.resolveUnimplemented
	default:
		return r.resolveUnimplemented
	}
}

func decodeInto[T any](input map[string]any) (T, error) {
	var out T
	if input == nil {
		return out, nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return out, fmt.Errorf("re-encoding input: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding input: %w", err)
	}
	return out, nil
}

func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func requireAuth(a actor) error {
	if !a.Authenticated {
		return apperror.New(apperror.KindUnauthenticated, "authentication required")
	}
	return nil
}

func (r *Resolver) resolveUnimplemented(_ context.Context, _ actor, _ string, _ map[string]any) (any, error) {
	return nil, apperror.New(apperror.KindInvalidInput, "module not implemented by this gateway")
}

// --- userAuthentication ---------------------------------------------

type registerInput struct {
	Name     string
	Password string
}

type loginInput struct {
	Name     string
	Password string
	TotpCode string
}

func (r *Resolver) resolveUserAuthentication(ctx context.Context, _ actor, action string, input map[string]any) (any, error) {
	switch action {
	case "register":
		in, err := decodeInto[registerInput](input)
		if err != nil {
			return nil, err
		}
		if in.Name == "" || in.Password == "" {
			return nil, apperror.New(apperror.KindInvalidInput, "name and password are required")
		}
		if _, err := r.users.ByName(ctx, in.Name); !apperror.Is(err, apperror.KindNotFound) {
			if err == nil {
				return nil, apperror.New(apperror.KindInvalidInput, "name already taken")
			}
			return nil, err
		}
		u := &models.User{
			Name:         in.Name,
			PasswordHash: sessions.HashPassword(in.Password),
			Lot:          models.UserLotNormal,
			Preferences:  models.DefaultUserPreferences(),
		}
		if err := r.users.Create(ctx, u); err != nil {
			return nil, err
		}
		if err := r.collections.EnsureDefaultCollections(ctx, u.ID); err != nil {
			return nil, err
		}
		token, err := r.sessions.Issue(u, sessions.DefaultAccessTokenTTL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"userId": u.ID, "token": token}, nil

	case "login":
		in, err := decodeInto[loginInput](input)
		if err != nil {
			return nil, err
		}
		u, err := r.users.ByName(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		if u.IsDisabled || !sessions.VerifyPassword(in.Password, u.PasswordHash) {
			return nil, apperror.New(apperror.KindUnauthenticated, "invalid credentials")
		}
		if u.TwoFactor != nil && u.TwoFactor.IsEnabled {
			if in.TotpCode == "" {
				return map[string]any{"twoFactorRequired": true, "userId": u.ID}, nil
			}
			ok, err := r.sessions.VerifyTOTP(ctx, u, in.TotpCode)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperror.New(apperror.KindTwoFactorInvalid, "invalid verification code")
			}
		}
		token, err := r.sessions.Issue(u, sessions.DefaultAccessTokenTTL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"userId": u.ID, "token": token}, nil

	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown userAuthentication action: "+action)
	}
}

// --- userManagement ---------------------------------------------------

func (r *Resolver) resolveUserManagement(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	u, err := r.users.Get(ctx, a.UserID)
	if err != nil {
		return nil, err
	}

	switch action {
	case "enrollTotp":
		uri, codes, err := r.sessions.EnrollTOTP(ctx, u)
		if err != nil {
			return nil, err
		}
		return map[string]any{"provisioningUri": uri, "backupCodes": codes}, nil

	case "confirmTotp":
		in, err := decodeInto[struct{ Code string }](input)
		if err != nil {
			return nil, err
		}
		if err := r.sessions.ConfirmTOTP(ctx, u, in.Code); err != nil {
			return nil, err
		}
		return map[string]any{"confirmed": true}, nil

	case "disableTotp":
		if err := r.sessions.DisableTOTP(ctx, a.UserID); err != nil {
			return nil, err
		}
		return map[string]any{"disabled": true}, nil

	case "logoutEverywhere":
		if err := r.sessions.RevokeAll(ctx, a.UserID); err != nil {
			return nil, err
		}
		return map[string]any{"revoked": true}, nil

	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown userManagement action: "+action)
	}
}

// --- tracking (consumption progress updates) --------------------------

func (r *Resolver) resolveTracking(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "updateProgress":
		in, err := decodeInto[models.MetadataProgressUpdateInput](input)
		if err != nil {
			return nil, err
		}
		seen, err := r.consumption.UpdateProgress(ctx, a.UserID, in)
		if err != nil {
			return nil, err
		}
		return toJSONMap(seen)
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown tracking action: "+action)
	}
}

// --- fitness (workout logging) ----------------------------------------

func (r *Resolver) resolveFitness(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "recordWorkout":
		in, err := decodeInto[models.WorkoutInput](input)
		if err != nil {
			return nil, err
		}
		w, err := r.fitness.CreateOrUpdateWorkout(ctx, a.UserID, in)
		if err != nil {
			return nil, err
		}
		return toJSONMap(w)
	case "mergeExercise":
		in, err := decodeInto[struct{ From, Into string }](input)
		if err != nil {
			return nil, err
		}
		if err := r.fitness.MergeExercise(ctx, a.UserID, in.From, in.Into); err != nil {
			return nil, err
		}
		return map[string]any{"merged": true}, nil
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown fitness action: "+action)
	}
}

// --- collection ---------------------------------------------------------

func (r *Resolver) resolveCollection(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "addEntity":
		in, err := decodeInto[struct {
			CollectionName string
			EntityID       string
			EntityLot      models.EntityLot
		}](input)
		if err != nil {
			return nil, err
		}
		coll, err := r.collections.GetOrCreate(ctx, a.UserID, in.CollectionName)
		if err != nil {
			return nil, err
		}
		entity, err := models.NewCollectionToEntity(coll.ID, in.EntityID, in.EntityLot)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInvalidInput, err, "building collection edge")
		}
		entity.Rank = "1"
		if err := r.collections.AddEntity(ctx, entity); err != nil {
			return nil, err
		}
		if r.queues != nil {
			_ = r.queues.Enqueue(ctx, jobs.KindHandleEntityAddedToCollection, jobs.EntityAddedToCollectionPayload{
				UserID: a.UserID, CollectionName: in.CollectionName, EntityID: in.EntityID,
				EntityLot: in.EntityLot, CollectionToEntityID: entity.ID,
			})
		}
		return map[string]any{"added": true}, nil

	case "removeEntity":
		in, err := decodeInto[struct {
			CollectionName string
			EntityID       string
			EntityLot      models.EntityLot
		}](input)
		if err != nil {
			return nil, err
		}
		coll, err := r.collections.ByName(ctx, a.UserID, in.CollectionName)
		if err != nil {
			return nil, err
		}
		if err := r.collections.RemoveEntity(ctx, coll.ID, in.EntityID, in.EntityLot); err != nil {
			return nil, err
		}
		return map[string]any{"removed": true}, nil

	case "listForEntity":
		in, err := decodeInto[struct {
			EntityID  string
			EntityLot models.EntityLot
		}](input)
		if err != nil {
			return nil, err
		}
		names, err := r.collections.NamesForEntity(ctx, a.UserID, in.EntityID, in.EntityLot)
		if err != nil {
			return nil, err
		}
		return map[string]any{"names": names}, nil

	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown collection action: "+action)
	}
}

// --- social (reviews) ----------------------------------------------------

func (r *Resolver) resolveSocial(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "postReview":
		in, err := decodeInto[models.Review](input)
		if err != nil {
			return nil, err
		}
		in.UserID = a.UserID
		if in.ID == "" {
			in.ID = models.NewID(models.PrefixReview)
		}
		if err := r.reviews.Upsert(ctx, &in); err != nil {
			return nil, err
		}
		if r.queues != nil {
			_ = r.queues.Enqueue(ctx, jobs.KindReviewPosted, in.ID)
		}
		return map[string]any{"id": in.ID}, nil
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown social action: "+action)
	}
}

// --- exporter / importer --------------------------------------------------

func (r *Resolver) resolveExporter(ctx context.Context, a actor, action string, _ map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "requestExport":
		if r.queues == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "export queue unavailable")
		}
		if err := r.queues.Enqueue(ctx, jobs.KindPerformExport, a.UserID); err != nil {
			return nil, err
		}
		return map[string]any{"queued": true}, nil
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown exporter action: "+action)
	}
}

func (r *Resolver) resolveImporter(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "reportStatus":
		in, err := decodeInto[struct{ ReportID string }](input)
		if err != nil {
			return nil, err
		}
		report, err := r.imports.Get(ctx, in.ReportID)
		if err != nil {
			return nil, err
		}
		return toJSONMap(report)
	default:
		// Triggering an import needs a live io.Reader (file upload) or a
		// remote source's own credentials, collected at the HTTP layer
		// the generic JSON envelope here doesn't carry; this gateway only
		// reports status on an already-running import.
		return nil, apperror.New(apperror.KindInvalidInput, "unknown importer action: "+action)
	}
}

// --- statistics -----------------------------------------------------------

func (r *Resolver) resolveStatistics(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "dailyActivity":
		in, err := decodeInto[struct {
			From time.Time
			To   time.Time
		}](input)
		if err != nil {
			return nil, err
		}
		bucket := models.PickBucket(int(in.To.Sub(in.From).Hours() / 24))
		rows, err := r.activities.Range(ctx, a.UserID, in.From, in.To, bucket)
		if err != nil {
			return nil, err
		}
		return toJSONMap(rows)
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown statistics action: "+action)
	}
}

// --- metadata ---------------------------------------------------------------

func (r *Resolver) resolveMetadata(ctx context.Context, _ actor, action string, input map[string]any) (any, error) {
	switch action {
	case "get":
		in, err := decodeInto[struct{ ID string }](input)
		if err != nil {
			return nil, err
		}
		md, err := r.metadata.Get(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		return toJSONMap(md)
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown metadata action: "+action)
	}
}

// --- fileStorage -------------------------------------------------------------

func (r *Resolver) resolveFileStorage(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "presignAvatarUpload":
		in, err := decodeInto[struct{ Extension string }](input)
		if err != nil {
			return nil, err
		}
		key := "avatars/" + a.UserID + "/" + models.NewID("") + "." + in.Extension
		url, err := r.store.PresignPut(ctx, key, "", 15*time.Minute)
		if err != nil {
			return nil, err
		}
		return map[string]any{"key": key, "uploadUrl": url}, nil
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown fileStorage action: "+action)
	}
}

// --- userServices / system ----------------------------------------------------

func (r *Resolver) resolveUserServices(ctx context.Context, a actor, action string, input map[string]any) (any, error) {
	if err := requireAuth(a); err != nil {
		return nil, err
	}
	switch action {
	case "me":
		u, err := r.users.Get(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		return toJSONMap(u)
	case "updatePreferences":
		in, err := decodeInto[models.UserPreferences](input)
		if err != nil {
			return nil, err
		}
		if err := r.users.UpdatePreferences(ctx, a.UserID, in); err != nil {
			return nil, err
		}
		return map[string]any{"updated": true}, nil
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown userServices action: "+action)
	}
}

func (r *Resolver) resolveSystem(_ context.Context, a actor, action string, _ map[string]any) (any, error) {
	switch action {
	case "config":
		if !a.Authenticated || !a.IsAdmin {
			return nil, apperror.New(apperror.KindAdminOnly, "admin account required")
		}
		return toJSONMap(r.cfg.Masked())
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown system action: "+action)
	}
}
