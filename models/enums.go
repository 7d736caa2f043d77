package models

// MediaLot is the closed-enum tag identifying an entity's media kind.
// Enums are persisted as snake_case strings (not integers) so that
// adding a variant is backwards compatible and DB dumps stay readable.
type MediaLot string

const (
	LotBook        MediaLot = "book"
	LotMovie       MediaLot = "movie"
	LotShow        MediaLot = "show"
	LotPodcast     MediaLot = "podcast"
	LotAnime       MediaLot = "anime"
	LotManga       MediaLot = "manga"
	LotAudioBook   MediaLot = "audio_book"
	LotVideoGame   MediaLot = "video_game"
	LotVisualNovel MediaLot = "visual_novel"
	LotMusic       MediaLot = "music"
)

// IsSerialized reports whether the lot is tracked episode/chapter-wise
// (as opposed to a single consumption event).
func (l MediaLot) IsSerialized() bool {
	switch l {
	case LotShow, LotPodcast, LotAnime, LotManga:
		return true
	default:
		return false
	}
}

// MediaSource is the external provider that authoritatively knows an
// entity's identifier.
type MediaSource string

const (
	SourceTMDB          MediaSource = "tmdb"
	SourceIGDB          MediaSource = "igdb"
	SourceAnilist       MediaSource = "anilist"
	SourceMAL           MediaSource = "mal"
	SourceVNDB          MediaSource = "vndb"
	SourceITunes        MediaSource = "itunes"
	SourceListennotes   MediaSource = "listennotes"
	SourceAudible       MediaSource = "audible"
	SourceOpenlibrary   MediaSource = "openlibrary"
	SourceHardcover     MediaSource = "hardcover"
	SourceGoogleBooks   MediaSource = "google_books"
	SourceMangaUpdates  MediaSource = "manga_updates"
	SourceYoutubeMusic  MediaSource = "youtube_music"
	SourceCustom        MediaSource = "custom"
	SourceTVDB          MediaSource = "tvdb"
)

// SeenState is the state of a single consumption event.
type SeenState string

const (
	SeenInProgress SeenState = "in_progress"
	SeenCompleted  SeenState = "completed"
	SeenDropped    SeenState = "dropped"
	SeenOnAHold    SeenState = "on_a_hold"
)

// UserLot distinguishes administrative from normal accounts.
type UserLot string

const (
	UserLotAdmin  UserLot = "admin"
	UserLotNormal UserLot = "normal"
)

// MediaReason records why a UserToEntity row exists for a given entity.
type MediaReason string

const (
	ReasonSeen       MediaReason = "seen"
	ReasonOwned      MediaReason = "owned"
	ReasonReviewed   MediaReason = "reviewed"
	ReasonReminder   MediaReason = "reminder"
	ReasonWatchlist  MediaReason = "watchlist"
	ReasonCollection MediaReason = "collection"
	ReasonMonitoring MediaReason = "monitoring"
	ReasonFinished   MediaReason = "finished"
)

// EntityLot is the polymorphic-edge discriminant for collections,
// reviews, and monitoring.
type EntityLot string

const (
	EntityMetadata        EntityLot = "metadata"
	EntityMetadataGroup    EntityLot = "metadata_group"
	EntityPerson           EntityLot = "person"
	EntityExercise         EntityLot = "exercise"
	EntityWorkout          EntityLot = "workout"
	EntityWorkoutTemplate  EntityLot = "workout_template"
	EntityCollection       EntityLot = "collection"
	EntityReview           EntityLot = "review"
	EntityMeasurement      EntityLot = "measurement"
)

// Default collection names the engine maintains automatically.
const (
	CollectionWatchlist  = "Watchlist"
	CollectionInProgress = "In Progress"
	CollectionCompleted  = "Completed"
	CollectionMonitoring = "Monitoring"
	CollectionOwned      = "Owned"
	CollectionReminders  = "Reminders"
)

// ExerciseLot determines which set-statistic fields are meaningful and
// which PR kinds are valid for an exercise.
type ExerciseLot string

const (
	ExerciseReps               ExerciseLot = "reps"
	ExerciseRepsAndWeight      ExerciseLot = "reps_and_weight"
	ExerciseDuration           ExerciseLot = "duration"
	ExerciseDistanceAndDuration ExerciseLot = "distance_and_duration"
	ExerciseRepsAndDuration    ExerciseLot = "reps_and_duration"
)

// ExerciseSource distinguishes catalog-seeded from user-created exercises.
type ExerciseSource string

const (
	ExerciseSourceGithub ExerciseSource = "github"
	ExerciseSourceCustom ExerciseSource = "custom"
)

// SetLot is the kind of a single set within a workout exercise.
type SetLot string

const (
	SetNormal  SetLot = "normal"
	SetWarmup  SetLot = "warmup"
	SetDrop    SetLot = "drop"
	SetFailure SetLot = "failure"
)

// PersonalBestKind enumerates the PR metrics a set can be tagged with.
type PersonalBestKind string

const (
	PBWeight   PersonalBestKind = "weight"
	PBOneRM    PersonalBestKind = "one_rm"
	PBVolume   PersonalBestKind = "volume"
	PBReps     PersonalBestKind = "reps"
	PBDuration PersonalBestKind = "duration"
	PBDistance PersonalBestKind = "distance"
	PBPace     PersonalBestKind = "pace"
)

// ValidPersonalBests returns the PR kinds meaningful for a given exercise
// lot, per the spec's "lot determines which PR kinds are valid" rule.
func ValidPersonalBests(lot ExerciseLot) []PersonalBestKind {
	switch lot {
	case ExerciseRepsAndWeight:
		return []PersonalBestKind{PBWeight, PBOneRM, PBVolume, PBReps}
	case ExerciseReps:
		return []PersonalBestKind{PBReps}
	case ExerciseDuration:
		return []PersonalBestKind{PBDuration}
	case ExerciseDistanceAndDuration:
		return []PersonalBestKind{PBDistance, PBDuration, PBPace}
	case ExerciseRepsAndDuration:
		return []PersonalBestKind{PBReps, PBDuration}
	default:
		return nil
	}
}

// IntegrationLot is the direction of an integration.
type IntegrationLot string

const (
	IntegrationYank IntegrationLot = "yank"
	IntegrationSink IntegrationLot = "sink"
	IntegrationPush IntegrationLot = "push"
)

// IntegrationProvider enumerates supported external integration systems.
type IntegrationProvider string

const (
	ProviderAudiobookshelf IntegrationProvider = "audiobookshelf"
	ProviderKomga          IntegrationProvider = "komga"
	ProviderPlexYank       IntegrationProvider = "plex_yank"
	ProviderPlexSink       IntegrationProvider = "plex_sink"
	ProviderJellyfinPush   IntegrationProvider = "jellyfin_push"
	ProviderJellyfinSink   IntegrationProvider = "jellyfin_sink"
	ProviderEmby           IntegrationProvider = "emby"
	ProviderKodi           IntegrationProvider = "kodi"
	ProviderRadarr         IntegrationProvider = "radarr"
	ProviderSonarr         IntegrationProvider = "sonarr"
	ProviderYoutubeMusic   IntegrationProvider = "youtube_music"
	ProviderGenericJSON    IntegrationProvider = "generic_json"
)

// NotificationPlatformKind enumerates notification delivery channels.
type NotificationPlatformKind string

const (
	PlatformApprise    NotificationPlatformKind = "apprise"
	PlatformDiscord    NotificationPlatformKind = "discord"
	PlatformGotify     NotificationPlatformKind = "gotify"
	PlatformNtfy       NotificationPlatformKind = "ntfy"
	PlatformPushBullet NotificationPlatformKind = "push_bullet"
	PlatformPushOver   NotificationPlatformKind = "push_over"
	PlatformPushSafer  NotificationPlatformKind = "push_safer"
	PlatformEmail      NotificationPlatformKind = "email"
	PlatformTelegram   NotificationPlatformKind = "telegram"
	PlatformSlack      NotificationPlatformKind = "slack"
)

// MediaStateChange enumerates the change kinds the monitoring system
// diffs on a refreshed Metadata entity.
type MediaStateChange string

const (
	ChangeMetadataPublished             MediaStateChange = "metadata_published"
	ChangeMetadataStatusChanged         MediaStateChange = "metadata_status_changed"
	ChangeMetadataReleaseDateChanged    MediaStateChange = "metadata_release_date_changed"
	ChangeMetadataNumberOfSeasonsChanged MediaStateChange = "metadata_number_of_seasons_changed"
	ChangeMetadataEpisodeReleased       MediaStateChange = "metadata_episode_released"
	ChangeMetadataEpisodeNameChanged    MediaStateChange = "metadata_episode_name_changed"
	ChangeMetadataChaptersOrEpisodesChanged MediaStateChange = "metadata_chapters_or_episodes_changed"
	ChangeMetadataEpisodeImagesChanged  MediaStateChange = "metadata_episode_images_changed"
	ChangePersonMediaAssociated         MediaStateChange = "person_media_associated"
	ChangeReviewPosted                  MediaStateChange = "review_posted"
)

// ReviewVisibility controls who can see a posted review.
type ReviewVisibility string

const (
	VisibilityPublic  ReviewVisibility = "public"
	VisibilityPrivate ReviewVisibility = "private"
)

// RatingScale is the user's preferred display scale for ratings; storage
// is always normalized to 0..100 regardless of this preference.
type RatingScale string

const (
	ScaleOutOfTen          RatingScale = "out_of_ten"
	ScaleOutOfFive         RatingScale = "out_of_five"
	ScaleOutOfHundred      RatingScale = "out_of_hundred"
	ScaleThreePointSmiley  RatingScale = "three_point_smiley"
)

// ImportSource enumerates the fifteen supported import adapters.
type ImportSource string

const (
	ImportAnilist         ImportSource = "anilist"
	ImportAudiobookshelf  ImportSource = "audiobookshelf"
	ImportGenericJSON     ImportSource = "generic_json"
	ImportGoodreads       ImportSource = "goodreads"
	ImportGrouvee         ImportSource = "grouvee"
	ImportHevy            ImportSource = "hevy"
	ImportIGDB            ImportSource = "igdb"
	ImportIMDB            ImportSource = "imdb"
	ImportJellyfin        ImportSource = "jellyfin"
	ImportMediaTracker    ImportSource = "media_tracker"
	ImportMovary          ImportSource = "movary"
	ImportMyAnimeList     ImportSource = "myanimelist"
	ImportOpenScale       ImportSource = "open_scale"
	ImportPlex            ImportSource = "plex"
	ImportStoryGraph      ImportSource = "storygraph"
	ImportStrongApp       ImportSource = "strong_app"
	ImportTrakt           ImportSource = "trakt"
)

// ImportFailStep is where in the pipeline an import item failed.
type ImportFailStep string

const (
	StepItemDetailsFromSource  ImportFailStep = "item_details_from_source"
	StepInputTransformation    ImportFailStep = "input_transformation"
	StepMediaDetailsFromProvider ImportFailStep = "media_details_from_provider"
	StepSeenHistoryConversion  ImportFailStep = "seen_history_conversion"
	StepDatabaseCommit         ImportFailStep = "database_commit"
)

// JobQueue is one of the four priority queues jobs are routed to.
type JobQueue string

const (
	QueueLp     JobQueue = "lp"
	QueueMp     JobQueue = "mp"
	QueueHp     JobQueue = "hp"
	QueueSingle JobQueue = "single"
)

// ProductionStatus mirrors the provider-reported lifecycle of a title.
type ProductionStatus string

const (
	ProductionOngoing    ProductionStatus = "ongoing"
	ProductionReleased   ProductionStatus = "released"
	ProductionUpcoming   ProductionStatus = "upcoming"
	ProductionCancelled  ProductionStatus = "cancelled"
)
