package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nec-exams/examportal-backend/internal/broadcast"
	"github.com/nec-exams/examportal-backend/internal/middleware"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/service"
	ws "github.com/nec-exams/examportal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler carries the two WebSocket surfaces: the per-attempt exam
// stream and the shared update fan-out stream.
type WSHandler struct {
	sessionService *service.ExamSessionService
	studentService *service.StudentService
	hub            *broadcast.Hub
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, studentService *service.StudentService, hub *broadcast.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		studentService: studentService,
		hub:            hub,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/student/exams/:branch/:year/:semester/:subject/stream?token=...
// The live surface of one exam attempt: answers, review flags, navigation,
// countdown ticks, integrity signals and the final submit.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	key := keyFromParams(c)

	student, err := h.studentService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown student"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", student.ID).
		Str("subject", key.Subject).
		Logger()

	// The stream requires a live attempt; StartExam over HTTP creates it.
	sess, err := h.sessionService.StartOrResume(context.Background(), student, key)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}
	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Session: sess})

	wsLog.Info().Msg("Exam stream connected")

	for {
		var req ws.Request
		if err := ws.ReadRequest(conn, &req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		done := h.dispatchExamAction(conn, wsLog, student, key, &req)
		if done {
			return
		}
	}
}

// dispatchExamAction runs one client action. It reports true when the
// attempt reached a terminal state and the stream should end.
func (h *WSHandler) dispatchExamAction(conn *websocket.Conn, wsLog zerolog.Logger, student *model.Student, key model.ExamKey, req *ws.Request) bool {
	ctx := context.Background()

	switch req.Action {
	case ws.ActionAnswer:
		selected := -1
		if req.Selected != nil {
			selected = *req.Selected
		}
		if _, err := h.sessionService.Answer(ctx, student.ID, key, req.QuestionID, selected); err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: req.QuestionID})

	case ws.ActionReview:
		if _, err := h.sessionService.Review(ctx, student.ID, key, req.QuestionID, req.Flagged); err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: req.QuestionID})

	case ws.ActionSeek:
		if _, err := h.sessionService.Seek(ctx, student.ID, key, req.Index); err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved})

	case ws.ActionTick:
		remaining, result, err := h.sessionService.Tick(ctx, student, key)
		if err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		if result != nil {
			wsLog.Info().Int("total_marks", result.TotalMarks).Msg("Attempt auto-submitted on expiry")
			ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, TotalMarks: result.TotalMarks, Result: result})
			return true
		}
		ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Remaining: remaining})

	case ws.ActionIntegrity:
		warnings, err := h.sessionService.ReportIntegrity(ctx, student.ID, key, req.EventType, req.Detail)
		if err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		ws.WriteTyped(conn, ws.WarningResponse{Event: ws.EventWarning, Warnings: warnings})

	case ws.ActionSubmit:
		answers := make([]model.SubmittedAnswer, len(req.Answers))
		for i, a := range req.Answers {
			answers[i] = model.SubmittedAnswer{QuestionID: a.QuestionID, SelectedAnswer: a.Selected}
		}
		result, err := h.sessionService.Submit(ctx, student, key, answers)
		if err != nil {
			ws.WriteError(conn, err.Error())
			return false
		}
		wsLog.Info().Int("total_marks", result.TotalMarks).Msg("Attempt submitted over stream")
		ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, TotalMarks: result.TotalMarks, Result: result})
		return true

	case ws.ActionPing:
		ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	default:
		wsLog.Warn().Str("action", string(req.Action)).Msg("Unknown action")
		ws.WriteError(conn, "unknown action: "+string(req.Action))
	}
	return false
}

// UpdatesStream godoc
// WS /ws/v1/updates/stream?token=...
// Fans mutation events out to connected dashboards. Students receive their
// own result updates; admins receive everything and may additionally watch
// branch channels.
func (h *WSHandler) UpdatesStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	isAdmin := claims.TokenType == service.TokenTypeAdmin
	var sub *broadcast.Subscription
	if isAdmin {
		sub = h.hub.Subscribe(broadcast.AdminChannel())
	} else {
		sub = h.hub.Subscribe(broadcast.StudentChannel(claims.UserID))
	}
	defer sub.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Bool("admin", isAdmin).Logger()
	wsLog.Info().Msg("Updates stream connected")

	// The reader goroutine never writes to the socket; replies are queued
	// to the main loop, the only writer.
	replies := make(chan interface{}, 8)
	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	defer close(writerDone)
	go func() {
		defer close(readerDone)
		for {
			var req ws.Request
			if err := ws.ReadRequest(conn, &req); err != nil {
				return
			}
			var reply interface{}
			switch req.Action {
			case ws.ActionWatchBranch:
				if !isAdmin || req.Branch == "" {
					reply = ws.ErrorResponse{Event: ws.EventError, Error: "watch_branch is admin only"}
					break
				}
				branch := strings.ToUpper(strings.TrimSpace(req.Branch))
				h.hub.Watch(sub, broadcast.BranchChannel(branch))
				wsLog.Info().Str("branch", branch).Msg("Watching branch channel")
			case ws.ActionPing:
				reply = ws.PongResponse{Event: ws.EventPong}
			default:
				reply = ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(req.Action)}
			}
			if reply != nil {
				select {
				case replies <- reply:
				case <-writerDone:
					return
				}
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.UpdateResponse{
				Event:   ws.EventUpdate,
				Type:    string(ev.Type),
				Payload: ev.Data,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Updates stream write failed")
				return
			}
		case reply := <-replies:
			if err := ws.WriteTyped(conn, reply); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}
