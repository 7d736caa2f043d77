package notifications

import "ryotgo/models"

// ReviewPostedContent builds the notification content for a newly posted
// review, fired from the review-creation path rather than from a
// metadata diff (ChangeReviewPosted isn't derivable by comparing two
// Metadata snapshots).
func ReviewPostedContent(review *models.Review, entityTitle, posterName string) models.UserNotificationContent {
	text := posterName + " posted a review for " + entityTitle
	if review.Rating != nil {
		text = posterName + " rated " + entityTitle
	}
	return models.UserNotificationContent{
		Change:    models.ChangeReviewPosted,
		EntityLot: review.EntityLot(),
		EntityID:  review.EntityID(),
		Title:     entityTitle,
		Text:      text,
	}
}

// PersonMediaAssociatedContent builds the notification content for a
// person gaining a new media association (e.g. an actor credited on a
// newly imported title), fired from the person-metadata-association
// write path rather than from a metadata diff.
func PersonMediaAssociatedContent(personID, personName, mediaTitle string) models.UserNotificationContent {
	return models.UserNotificationContent{
		Change:    models.ChangePersonMediaAssociated,
		EntityLot: models.EntityPerson,
		EntityID:  personID,
		Title:     personName,
		Text:      personName + " is now associated with " + mediaTitle,
	}
}
