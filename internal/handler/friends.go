package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/queue"
	"github.com/iliyamo/movie-wishlist/internal/repository"
	queue_publisher "github.com/iliyamo/movie-wishlist/internal/service"
)

// FriendHandler serves friendship management: requests, acceptance, removal
// and the various listings.
type FriendHandler struct {
	Friends *repository.FriendshipRepo
	Users   *repository.UserRepo
}

func NewFriendHandler(friends *repository.FriendshipRepo, users *repository.UserRepo) *FriendHandler {
	return &FriendHandler{Friends: friends, Users: users}
}

type sendRequestReq struct {
	TargetUserID   uint64 `json:"target_user_id"`
	TargetUsername string `json:"target_username"`
}

// SendRequest creates a pending friend request. The target may be given by id
// or by username.
func (h *FriendHandler) SendRequest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TargetUsername = strings.TrimSpace(req.TargetUsername)
	if req.TargetUserID == 0 && req.TargetUsername == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_user_id or target_username required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	targetID := req.TargetUserID
	if targetID == 0 {
		target, err := h.Users.GetByIdentifier(ctx, req.TargetUsername)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		targetID = target.ID
	}
	if targetID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot befriend yourself"})
	}
	// Requests by id also need the target to exist; the insert would not
	// fail on its own before the foreign key fires.
	if req.TargetUserID != 0 {
		if _, err := h.Users.GetByID(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	id, err := h.Friends.Send(ctx, uid, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "friendship already exists or is pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"friendship_id": id})
}

// Accept flips a pending request addressed to the caller to ACCEPTED and
// publishes a notification event for the requester.
func (h *FriendHandler) Accept(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fid, err := pathID(c, "friendshipId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid friendship id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	requesterID, err := h.Friends.Accept(ctx, uid, fid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the addressee can accept"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already friends"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept failed"})
	}

	h.publishAccepted(c, fid, requesterID, uid)
	return c.JSON(http.StatusOK, echo.Map{"status": "ACCEPTED"})
}

// Remove deletes a friendship or rejects a pending request.
func (h *FriendHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fid, err := pathID(c, "friendshipId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid friendship id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Friends.Delete(ctx, uid, fid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "friendship not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's accepted friends, paginated.
func (h *FriendHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	friends, err := h.Friends.Friends(ctx, uid, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"friends": friends, "page": page})
}

// Pending returns friend requests the caller has received.
func (h *FriendHandler) Pending(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.Friends.Pending(ctx, uid, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": reqs, "page": page})
}

// Sent returns friend requests the caller has sent that are still pending.
func (h *FriendHandler) Sent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.Friends.Sent(ctx, uid, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": reqs, "page": page})
}

// Status reports the relationship between the caller and another user.
func (h *FriendHandler) Status(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, fid, isRequester, err := h.Friends.Status(ctx, uid, target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := echo.Map{"status": status, "is_requester": isRequester}
	if fid != 0 {
		resp["friendship_id"] = fid
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FriendHandler) publishAccepted(c echo.Context, friendshipID, requesterID, addresseeID uint64) {
	username, _ := c.Get("username").(string)
	ev := queue.FriendAcceptedEvent{
		FriendshipID:      friendshipID,
		RequesterID:       requesterID,
		AddresseeID:       addresseeID,
		AddresseeUsername: username,
		AcceptedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishFriendAccepted(ctx, ev)
	}()
}
