package generators

import (
	"strings"

	"github.com/observe2agent/observe2agent/pkg/models"
)

const (
	analysisVideoDuration = 55.8
	analysisFrames        = 167
)

// Analyze returns the workflow extracted from a recorded purchase-order process.
// The content is fixed; only the video ID varies between calls.
func Analyze(videoID string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, ErrEmptyVideoID
	}

	return &models.AnalysisResult{
		VideoID:                videoID,
		VideoDurationSeconds:   analysisVideoDuration,
		FramesAnalyzed:         analysisFrames,
		WorkflowSteps:          workflowSteps(),
		SystemsDetected:        detectedSystems(),
		DataExtractionPatterns: extractionPatterns(),
		ProcessSummary: "SAP Purchase Order Creation - User logs into SAP S/4HANA, navigates to ME21N, " +
			"fills vendor/material/quantity details, submits PO, and receives confirmation email",
		SuccessIndicators: []string{
			"PO number 4500012847 generated",
			"Status shows Pending Approval",
			"Email confirmation triggered",
		},
		EstimatedExecutionTimeMinutes: 3.5,
	}, nil
}

func workflowSteps() []models.WorkflowStep {
	steps := []models.WorkflowStep{
		{
			Title:          "Open SAP ERP System",
			Description:    "User navigates to SAP Fiori Launchpad and opens the ERP module via browser",
			ActionType:     models.ActionTypeNavigate,
			System:         "SAP ERP",
			UIElements:     []string{"SAP Fiori Launchpad", "Browser URL bar", "Login tile"},
			ExpectedOutput: "SAP dashboard loaded",
			Duration:       8.5,
		},
		{
			Title:          "Enter Authentication Credentials",
			Description:    "User enters username and password into the SAP login form and clicks Sign In",
			ActionType:     models.ActionTypeInput,
			System:         "SAP ERP",
			UIElements:     []string{"Username field", "Password field", "Sign In button", "SSO option"},
			ExpectedOutput: "Authentication successful, main menu displayed",
			Duration:       12.3,
		},
		{
			Title: "Navigate to Purchase Order Module",
			Description: "User clicks on Materials Management menu, selects Purchase Order > Create, " +
				"opens transaction ME21N",
			ActionType:     models.ActionTypeClick,
			System:         "SAP ERP",
			UIElements:     []string{"Main Menu", "Materials Management", "Purchase Order", "Create PO button"},
			ExpectedOutput: "Purchase Order creation form opened",
			Duration:       6.2,
		},
		{
			Title: "Fill Purchase Order Form",
			Description: "User enters vendor details (V-1001), material (MAT-5890), quantity (500), " +
				"delivery date, and cost center",
			ActionType: models.ActionTypeInput,
			System:     "SAP ERP",
			UIElements: []string{
				"Vendor field", "Material field", "Quantity field",
				"Delivery Date picker", "Cost Center dropdown", "Unit Price field",
			},
			ExpectedOutput: "PO form populated with all required fields",
			Duration:       18.7,
		},
		{
			Title: "Submit and Verify Purchase Order",
			Description: "User clicks Submit, confirms the dialog, PO number 4500012847 is generated, " +
				"confirmation email is triggered",
			ActionType:     models.ActionTypeClick,
			System:         "SAP ERP",
			UIElements:     []string{"Submit button", "Confirmation dialog", "OK button", "PO number display"},
			ExpectedOutput: "PO 4500012847 created, status: Pending Approval",
			Duration:       10.1,
		},
	}

	// Steps are laid end to end on the video timeline.
	offset := 0.0
	for i := range steps {
		steps[i].StepNumber = i + 1
		steps[i].Timestamp = offset
		offset += steps[i].Duration
	}

	return steps
}

func detectedSystems() []models.DetectedSystem {
	return []models.DetectedSystem{
		{
			Name:            "SAP ERP",
			SystemType:      models.SystemTypeERP,
			Confidence:      0.96,
			Version:         "S/4HANA 2023",
			UIElements:      []string{"SAP Fiori Launchpad", "Transaction Code ME21N", "SAP Menu Bar"},
			FirstDetectedAt: 0,
		},
		{
			Name:            "Microsoft Outlook",
			SystemType:      models.SystemTypeEmail,
			Confidence:      0.82,
			Version:         "Microsoft 365",
			UIElements:      []string{"Outlook notification", "Email toast popup"},
			FirstDetectedAt: 50.2,
		},
		{
			Name:            "Chrome Browser",
			SystemType:      models.SystemTypeOther,
			Confidence:      0.71,
			Version:         "v120",
			UIElements:      []string{"Browser tab", "URL bar", "Bookmarks bar"},
			FirstDetectedAt: 0,
		},
	}
}

func extractionPatterns() []models.ExtractionPattern {
	return []models.ExtractionPattern{
		{Field: "PO_Number", Pattern: `PO-\d{10}`, Confidence: 0.95, Example: "4500012847"},
		{Field: "Vendor_ID", Pattern: `V-\d{4}`, Confidence: 0.92, Example: "V-1001"},
		{Field: "Material_Code", Pattern: `MAT-\d{4}`, Confidence: 0.90, Example: "MAT-5890"},
		{Field: "Quantity", Pattern: `\d+`, Confidence: 0.88, Example: "500"},
		{Field: "Total_Amount", Pattern: `\$[\d,]+\.\d{2}`, Confidence: 0.85, Example: "$125,000.00"},
	}
}
