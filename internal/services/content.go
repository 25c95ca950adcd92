package services

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/balaghcms/notification-service/internal/models"
)

// Subject and body text is Arabic; unknown actions and entity types fall
// back to the raw value so rendering is total over arbitrary inputs.

var subjectActions = map[string]string{
	"created":  "إنشاء",
	"updated":  "تعديل",
	"deleted":  "حذف",
	"approved": "موافقة",
	"rejected": "رفض",
}

var subjectEntities = map[string]string{
	"martyrs":       "شهيد",
	"locations":     "موقع",
	"legends":       "أسطورة",
	"activities":    "نشاط",
	"activityTypes": "نوع نشاط",
	"news":          "خبر",
	"liveNews":      "خبر مباشر",
	"admins":        "مدير",
	"sectors":       "قطاع",
}

var bodyActions = map[string]string{
	"created":  "تم إنشاء",
	"updated":  "تم تعديل",
	"deleted":  "تم حذف",
	"approved": "تم الموافقة على",
	"rejected": "تم رفض",
}

var bodyEntities = map[string]string{
	"martyrs":       "الشهيد",
	"locations":     "الموقع",
	"legends":       "الأسطورة",
	"activities":    "النشاط",
	"activityTypes": "نوع النشاط",
	"news":          "الخبر",
	"liveNews":      "الخبر المباشر",
	"admins":        "المدير",
	"sectors":       "القطاع",
}

// Admin-panel deep links per entity type. Unmapped types land on the panel
// root with a generic label.
var panelPages = map[string]struct {
	Path  string
	Label string
}{
	"activities": {"/activities", "إدارة الأنشطة"},
	"martyrs":    {"/martyrs", "إدارة الشهداء"},
	"locations":  {"/locations", "إدارة المواقع"},
	"news":       {"/news", "إدارة الأخبار"},
}

const defaultPanelLabel = "انتقل إلى لوحة التحكم"

const unknownPerformer = "غير محدد"

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// Notification timestamps display in the panel's local time.
var displayLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Beirut")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Renderer produces localized subjects and HTML bodies for notification and
// verification emails.
type Renderer struct {
	adminPanelURL string
}

func NewRenderer(adminPanelURL string) *Renderer {
	return &Renderer{adminPanelURL: strings.TrimSuffix(adminPanelURL, "/")}
}

// Subject builds the notification subject line. Pure and total: any action
// or entity type string yields a subject.
func (r *Renderer) Subject(n models.Notification) string {
	action := subjectActions[n.Action]
	if action == "" {
		action = n.Action
	}
	entity := subjectEntities[n.EntityType]
	if entity == "" {
		entity = n.EntityType
	}
	return fmt.Sprintf("بلاغ - %s %s: %s", action, entity, n.EntityName)
}

type notificationBodyData struct {
	Headline        string
	EntityName      string
	PerformedByName string
	PerformedBy     string
	Timestamp       string
	Details         string
	ButtonURL       string
	ButtonLabel     string
}

// Body renders the notification HTML document.
func (r *Renderer) Body(n models.Notification) string {
	action := bodyActions[n.Action]
	if action == "" {
		action = "تم " + n.Action
	}
	entity := bodyEntities[n.EntityType]
	if entity == "" {
		entity = n.EntityType
	}

	performer := n.PerformedByName
	if performer == "" {
		performer = unknownPerformer
	}

	buttonURL := r.adminPanelURL
	buttonLabel := defaultPanelLabel
	if page, ok := panelPages[n.EntityType]; ok {
		buttonURL += page.Path
		buttonLabel = page.Label
	}

	data := notificationBodyData{
		Headline:        action + " " + entity,
		EntityName:      n.EntityName,
		PerformedByName: performer,
		PerformedBy:     n.PerformedBy,
		Timestamp:       formatTimestamp(n.Timestamp),
		Details:         n.Details,
		ButtonURL:       buttonURL,
		ButtonLabel:     buttonLabel,
	}

	var b strings.Builder
	if err := notificationTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// VerificationBody renders the login verification-code email.
func (r *Renderer) VerificationBody(userName, code string) string {
	if userName == "" {
		userName = "بك"
	}
	var b strings.Builder
	if err := verificationTmpl.Execute(&b, struct {
		UserName string
		Code     string
	}{userName, code}); err != nil {
		return ""
	}
	return b.String()
}

func formatTimestamp(epochMillis int64) string {
	t := time.UnixMilli(epochMillis).In(displayLocation)
	return fmt.Sprintf("%d %s %d، %02d:%02d",
		t.Day(), arabicMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html dir="rtl" lang="ar">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>إشعار من بلاغ</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 20px; direction: rtl;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
    <div style="background: linear-gradient(135deg, #1e3a8a 0%, #3b82f6 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
      <h1 style="margin: 0; font-size: 24px; font-weight: bold;">🔔 إشعار من بلاغ</h1>
      <p style="margin: 10px 0 0 0; opacity: 0.9; font-size: 16px;">نظام إدارة المحتوى</p>
    </div>
    <div style="padding: 30px;">
      <div style="background-color: #f8fafc; border-right: 4px solid #3b82f6; padding: 20px; margin-bottom: 25px; border-radius: 0 8px 8px 0;">
        <h2 style="margin: 0 0 15px 0; color: #1e40af; font-size: 20px;">{{.Headline}}</h2>
        <p style="margin: 0; font-size: 18px; font-weight: bold; color: #374151;">{{.EntityName}}</p>
      </div>
      <div style="margin-bottom: 25px;">
        <h3 style="color: #374151; margin: 0 0 15px 0; font-size: 16px; border-bottom: 2px solid #e5e7eb; padding-bottom: 10px;">📋 تفاصيل العملية</h3>
        <table style="width: 100%; border-collapse: collapse;">
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-weight: bold; width: 30%;">المُنفِذ:</td>
            <td style="padding: 8px 0; color: #374151;">{{.PerformedByName}}</td>
          </tr>
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-weight: bold;">البريد الإلكتروني:</td>
            <td style="padding: 8px 0; color: #374151;">{{.PerformedBy}}</td>
          </tr>
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-weight: bold;">التاريخ والوقت:</td>
            <td style="padding: 8px 0; color: #374151;">{{.Timestamp}}</td>
          </tr>
          {{if .Details}}
          <tr>
            <td style="padding: 8px 0; color: #6b7280; font-weight: bold; vertical-align: top;">تفاصيل إضافية:</td>
            <td style="padding: 8px 0; color: #374151;">{{.Details}}</td>
          </tr>
          {{end}}
        </table>
      </div>
      <div style="text-align: center; margin: 30px 0;">
        <a href="{{.ButtonURL}}" style="display: inline-block; background: linear-gradient(135deg, #10b981 0%, #059669 100%); color: white; padding: 15px 40px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">🚀 {{.ButtonLabel}}</a>
        <p style="margin: 10px 0 0 0; color: #6b7280; font-size: 12px;">انقر على الزر أعلاه للانتقال مباشرة إلى لوحة التحكم</p>
      </div>
      <div style="background-color: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 15px; margin-top: 25px;">
        <p style="margin: 0; color: #92400e; font-size: 14px; text-align: center;">📧 هذا إشعار تلقائي من نظام بلاغ لإدارة المحتوى</p>
      </div>
    </div>
    <div style="background-color: #f8fafc; padding: 20px; text-align: center; border-radius: 0 0 10px 10px; border-top: 1px solid #e5e7eb;">
      <p style="margin: 0; color: #6b7280; font-size: 12px;">© 2024 بلاغ - نظام إدارة المحتوى<br>هذا البريد الإلكتروني تم إرساله تلقائياً، يرجى عدم الرد عليه</p>
    </div>
  </div>
</body>
</html>
`))

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html dir="rtl" lang="ar">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>رمز التحقق - بلاغ</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 20px; direction: rtl;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
    <div style="background: linear-gradient(135deg, #1e3a8a 0%, #3b82f6 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
      <h1 style="margin: 0; font-size: 24px; font-weight: bold;">🔐 رمز التحقق</h1>
      <p style="margin: 10px 0 0 0; opacity: 0.9; font-size: 16px;">نظام بلاغ الإداري</p>
    </div>
    <div style="padding: 40px 30px;">
      <div style="text-align: center; margin-bottom: 30px;">
        <p style="color: #374151; font-size: 16px; margin: 0 0 10px 0;">مرحباً {{.UserName}},</p>
        <p style="color: #6b7280; font-size: 14px; margin: 0;">لقد تلقينا طلب تسجيل دخول إلى حسابك الإداري</p>
      </div>
      <div style="background: linear-gradient(135deg, #f0f9ff 0%, #e0f2fe 100%); border: 2px solid #3b82f6; border-radius: 12px; padding: 30px; text-align: center; margin: 30px 0;">
        <p style="color: #1e40af; font-size: 14px; margin: 0 0 15px 0; font-weight: bold;">رمز التحقق الخاص بك:</p>
        <div style="background: white; border-radius: 8px; padding: 20px; display: inline-block;">
          <span style="font-size: 36px; font-weight: bold; color: #1e3a8a; letter-spacing: 8px; font-family: 'Courier New', monospace;">{{.Code}}</span>
        </div>
        <p style="color: #6b7280; font-size: 12px; margin: 15px 0 0 0;">⏰ ينتهي هذا الرمز خلال 5 دقائق</p>
      </div>
      <div style="background-color: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 15px; margin-top: 25px;">
        <p style="margin: 0; color: #92400e; font-size: 14px; text-align: center;">⚠️ إذا لم تطلب هذا الرمز، يرجى تجاهل هذه الرسالة</p>
      </div>
    </div>
    <div style="background-color: #f8fafc; padding: 20px; text-align: center; border-radius: 0 0 10px 10px; border-top: 1px solid #e5e7eb;">
      <p style="margin: 0; color: #6b7280; font-size: 12px;">© 2024 بلاغ - نظام إدارة المحتوى</p>
    </div>
  </div>
</body>
</html>
`))
