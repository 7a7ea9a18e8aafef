package synth

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type cfnTemplate struct {
	FormatVersion string                  `yaml:"AWSTemplateFormatVersion"`
	Description   string                  `yaml:"Description"`
	Parameters    map[string]cfnParameter `yaml:"Parameters"`
	Resources     map[string]cfnResource  `yaml:"Resources"`
	Outputs       map[string]cfnOutput    `yaml:"Outputs"`
}

type cfnParameter struct {
	Type        string `yaml:"Type"`
	Description string `yaml:"Description"`
	Default     string `yaml:"Default,omitempty"`
}

type cfnResource struct {
	Type                string                 `yaml:"Type"`
	DeletionPolicy      string                 `yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string                 `yaml:"UpdateReplacePolicy,omitempty"`
	Properties          map[string]interface{} `yaml:"Properties"`
}

type cfnOutput struct {
	Description string      `yaml:"Description"`
	Value       interface{} `yaml:"Value"`
}

func cfnRef(name string) map[string]string {
	return map[string]string{"Ref": name}
}

func cfnGetAtt(resource, attr string) map[string][]string {
	return map[string][]string{"Fn::GetAtt": {resource, attr}}
}

func cfnTags(env string) []map[string]string {
	return []map[string]string{
		{"Key": "Environment", "Value": env},
		{"Key": "ManagedBy", "Value": "cloudformation"},
	}
}

// rdsStack builds the CloudFormation equivalent of the RDS Terraform module
func rdsStack(p rdsParams) cfnTemplate {
	policy := "Delete"
	if !p.SkipFinalSnapshot {
		policy = "Snapshot"
	}

	return cfnTemplate{
		FormatVersion: "2010-09-09",
		Description:   fmt.Sprintf("PostgreSQL on Amazon RDS for the %s environment", p.Environment),
		Parameters: map[string]cfnParameter{
			"VpcId": {
				Type:        "AWS::EC2::VPC::Id",
				Description: "VPC the database is placed in",
			},
			"SubnetIds": {
				Type:        "List<AWS::EC2::Subnet::Id>",
				Description: "Private subnets for the DB subnet group",
			},
			"DBName": {
				Type:        "String",
				Description: "Initial database name",
				Default:     "appdb",
			},
		},
		Resources: map[string]cfnResource{
			"DBSubnetGroup": {
				Type: "AWS::RDS::DBSubnetGroup",
				Properties: map[string]interface{}{
					"DBSubnetGroupDescription": p.Identifier + " subnets",
					"SubnetIds":                cfnRef("SubnetIds"),
					"Tags":                     cfnTags(p.Environment),
				},
			},
			"DBSecurityGroup": {
				Type: "AWS::EC2::SecurityGroup",
				Properties: map[string]interface{}{
					"GroupName":        p.Identifier + "-sg",
					"GroupDescription": "PostgreSQL access from inside the VPC",
					"VpcId":            cfnRef("VpcId"),
					"SecurityGroupIngress": []map[string]interface{}{{
						"IpProtocol":  "tcp",
						"FromPort":    5432,
						"ToPort":      5432,
						"CidrIp":      "10.0.0.0/16",
						"Description": "PostgreSQL",
					}},
					"Tags": cfnTags(p.Environment),
				},
			},
			"DBInstance": {
				Type:                "AWS::RDS::DBInstance",
				DeletionPolicy:      policy,
				UpdateReplacePolicy: policy,
				Properties: map[string]interface{}{
					"DBInstanceIdentifier":        p.Identifier,
					"DBName":                      cfnRef("DBName"),
					"Engine":                      "postgres",
					"EngineVersion":               p.EngineVersion,
					"DBInstanceClass":             p.InstanceClass,
					"AllocatedStorage":            strconv.Itoa(p.StorageGB),
					"MaxAllocatedStorage":         p.MaxStorageGB,
					"StorageType":                 "gp3",
					"StorageEncrypted":            true,
					"MasterUsername":              "dbadmin",
					"ManageMasterUserPassword":    true,
					"MultiAZ":                     p.MultiAZ,
					"BackupRetentionPeriod":       p.BackupRetentionDays,
					"PreferredBackupWindow":       "03:00-04:00",
					"PreferredMaintenanceWindow":  "sun:04:00-sun:05:00",
					"EnableCloudwatchLogsExports": []string{"postgresql", "upgrade"},
					"DeletionProtection":          p.DeletionProtection,
					"DBSubnetGroupName":           cfnRef("DBSubnetGroup"),
					"VPCSecurityGroups":           []interface{}{cfnGetAtt("DBSecurityGroup", "GroupId")},
					"Tags":                        cfnTags(p.Environment),
				},
			},
		},
		Outputs: map[string]cfnOutput{
			"Endpoint": {
				Description: "Connection endpoint",
				Value:       cfnGetAtt("DBInstance", "Endpoint.Address"),
			},
			"MasterSecretArn": {
				Description: "Secrets Manager ARN holding the master credentials",
				Value:       cfnGetAtt("DBInstance", "MasterUserSecret.SecretArn"),
			},
		},
	}
}

func renderCloudFormation(t cfnTemplate) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("failed to encode cloudformation template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to flush cloudformation template: %w", err)
	}
	return buf.String(), nil
}
